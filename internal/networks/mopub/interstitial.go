package mopub

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// InterstitialAdapter serves MoPub interstitials
type InterstitialAdapter struct {
	base
}

// NewInterstitialAdapter creates an interstitial adapter over sdk
func NewInterstitialAdapter(sdk SDK, opts ...Option) *InterstitialAdapter {
	return &InterstitialAdapter{base: newBase(sdk, mediation.FormatInterstitial, opts)}
}

// RequestInterstitialAd requests an interstitial. ctx must be an activity.
// A pending consent dialog is shown once the interstitial is displayed.
func (a *InterstitialAdapter) RequestInterstitialAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	activity, ok := inst.RequireActivity(ctx, "Can not get a MoPub interstitial because its creation context is not an Activity")
	if !ok {
		return
	}
	adUnitID := params.Decode(config).Key()

	if !a.ready(ctx, inst, adUnitID, func() { a.RequestInterstitialAd(ctx, config, clientParams, listener) }) {
		return
	}

	gate := a.consentGate()
	gate.Defer()
	inst.AfterShown(gate.OnShown)

	ad := a.sdk.NewInterstitial(activity, adUnitID, &interstitialListener{inst: inst})
	inst.Attach(ad)
	inst.SetRelease(ad.Destroy)

	inst.Logger().Debug().Str("ad_unit", adUnitID).Msg("requesting interstitial")
	ad.Load()
}

// ShowInterstitial displays the loaded interstitial on the main thread
func (a *InterstitialAdapter) ShowInterstitial() error {
	return a.tracker.Show(a.thread, func(inst *mediation.Instance, _ *mediation.Activity) {
		ad, ok := inst.Native().(Interstitial)
		if !ok || !ad.IsReady() {
			inst.Emit(mediation.ShowFailed("MoPub interstitial is not ready"))
			return
		}
		ad.Show()
	})
}

type interstitialListener struct {
	inst *mediation.Instance
}

func (l *interstitialListener) OnInterstitialLoaded(Interstitial) {
	l.inst.Logger().Debug().Msg("onInterstitialLoaded")
	l.inst.Emit(mediation.Loaded(nil))
}

func (l *interstitialListener) OnInterstitialFailed(_ Interstitial, code ErrorCode) {
	l.inst.Logger().Debug().Str("code", string(code)).Msg("onInterstitialFailed")
	l.inst.Emit(loadFailed(code))
}

func (l *interstitialListener) OnInterstitialShown(Interstitial) {
	l.inst.Logger().Debug().Msg("onInterstitialShown")
	l.inst.Emit(mediation.Shown())
}

func (l *interstitialListener) OnInterstitialClicked(Interstitial) {
	l.inst.Logger().Debug().Msg("onInterstitialClicked")
	l.inst.Emit(mediation.Clicked())
}

// OnInterstitialDismissed reports the close and destroys the native object
func (l *interstitialListener) OnInterstitialDismissed(Interstitial) {
	l.inst.Logger().Debug().Msg("onInterstitialDismissed")
	l.inst.Emit(mediation.Closed())
	l.inst.ReleaseNative()
}
