package google

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// InterstitialAdapter serves AdMob and Ad Manager interstitials
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
	if _, ok := inst.RequireActivity(ctx, "Google interstitial requires the Context to be an Activity for display"); !ok {
		return
	}
	fields := params.Decode(config)
	req := a.adRequest(ctx, fields.Key(), clientParams)

	inst.Logger().Debug().Str("ad_unit", fields.AdUnitID()).Bool("ad_manager", req.AdManager).Msg("requesting interstitial")
	a.sdk.LoadInterstitial(ctx, fields.AdUnitID(), req, &interstitialLoad{inst: inst})
}

// ShowInterstitial displays the loaded interstitial on the main thread
func (a *InterstitialAdapter) ShowInterstitial() error {
	return a.tracker.Show(a.thread, func(inst *mediation.Instance, activity *mediation.Activity) {
		ad, ok := inst.Native().(InterstitialAd)
		if !ok {
			inst.Emit(mediation.ShowFailed("Google interstitial was released before display"))
			return
		}
		ad.Show(activity)
	})
}

type interstitialLoad struct {
	inst *mediation.Instance
}

func (l *interstitialLoad) OnAdLoaded(ad InterstitialAd) {
	l.inst.Logger().Debug().Msg("onAdLoaded")
	ad.SetFullScreenContentCallback(&fullScreenCallback{inst: l.inst})
	l.inst.Attach(ad)
	l.inst.Emit(mediation.Loaded(nil))
}

func (l *interstitialLoad) OnAdFailedToLoad(err LoadAdError) {
	l.inst.Logger().Debug().Str("error", err.String()).Msg("onAdFailedToLoad")
	l.inst.Emit(loadFailed(mediation.FormatInterstitial, err))
}

// fullScreenCallback translates display callbacks of interstitial and
// rewarded ads. The native ad is released once shown.
type fullScreenCallback struct {
	inst *mediation.Instance
}

func (c *fullScreenCallback) OnAdShowedFullScreenContent() {
	c.inst.Logger().Debug().Msg("onAdShowedFullScreenContent")
	c.inst.Emit(mediation.Shown())
	c.inst.ReleaseNative()
}

func (c *fullScreenCallback) OnAdFailedToShowFullScreenContent(err AdError) {
	c.inst.Logger().Debug().Int("code", err.Code).Str("error", err.Message).Msg("onAdFailedToShowFullScreenContent")
	c.inst.Emit(mediation.ShowFailed(err.Message))
}

func (c *fullScreenCallback) OnAdDismissedFullScreenContent() {
	c.inst.Logger().Debug().Msg("onAdDismissedFullScreenContent")
	c.inst.Emit(mediation.Closed())
}

func (c *fullScreenCallback) OnAdImpression() {
	c.inst.Logger().Debug().Msg("onAdImpression")
}

func (c *fullScreenCallback) OnAdClicked() {
	c.inst.Logger().Debug().Msg("onAdClicked")
	c.inst.Emit(mediation.Clicked())
}
