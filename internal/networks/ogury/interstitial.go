package ogury

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// InterstitialAdapter serves Ogury interstitials
type InterstitialAdapter struct {
	base
}

// NewInterstitialAdapter creates an interstitial adapter over sdk
func NewInterstitialAdapter(sdk SDK, opts ...Option) *InterstitialAdapter {
	return &InterstitialAdapter{base: newBase(sdk, mediation.FormatInterstitial, opts)}
}

// RequestInterstitialAd requests an interstitial. ctx must be an activity.
func (a *InterstitialAdapter) RequestInterstitialAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	if _, ok := inst.RequireActivity(ctx, "Ogury interstitial requires the Context to be an Activity for display"); !ok {
		return
	}
	fields := params.Decode(config)
	a.configure(ctx, inst, fields)

	ad := a.sdk.NewInterstitialAd(ctx, fields.AdUnitID(), &adListener{inst: inst, fullscreen: true})
	inst.Attach(ad)

	inst.Logger().Debug().Str("ad_unit", fields.AdUnitID()).Msg("requesting interstitial")
	ad.Load()
}

// ShowInterstitial displays the loaded interstitial on the main thread
func (a *InterstitialAdapter) ShowInterstitial() error {
	return a.tracker.Show(a.thread, showFullscreen("Ogury interstitial is not loaded"))
}

func showFullscreen(notLoaded string) func(*mediation.Instance, *mediation.Activity) {
	return func(inst *mediation.Instance, _ *mediation.Activity) {
		ad, ok := inst.Native().(FullscreenAd)
		if !ok || !ad.IsLoaded() {
			inst.Emit(mediation.ShowFailed(notLoaded))
			return
		}
		ad.Show()
	}
}
