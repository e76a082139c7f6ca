package mopub

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// BannerAdapter serves MoPub banners
type BannerAdapter struct {
	base
}

// NewBannerAdapter creates a banner adapter over sdk
func NewBannerAdapter(sdk SDK, opts ...Option) *BannerAdapter {
	return &BannerAdapter{base: newBase(sdk, mediation.FormatBanner, opts)}
}

// RequestBannerAd requests a banner. The configuration string is the MoPub
// ad unit id. Layout size comes from the adViewWidth and adViewHeight
// client parameters.
func (a *BannerAdapter) RequestBannerAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	adUnitID := params.Decode(config).Key()

	if !a.ready(ctx, inst, adUnitID, func() { a.RequestBannerAd(ctx, config, clientParams, listener) }) {
		return
	}

	if a.locationAllowed {
		a.sdk.SetLocationAwareness(LocationNormal)
	} else {
		a.sdk.SetLocationAwareness(LocationDisabled)
	}
	a.consentGate().Prompt(nil)

	width := clientParams.Int(mediation.AdViewWidthKey)
	height := clientParams.Int(mediation.AdViewHeightKey)
	view := a.sdk.NewView(ctx, adUnitID, width, height, &bannerListener{inst: inst})
	inst.SetRelease(view.Destroy)
	view.SetAutorefreshEnabled(false)

	inst.Logger().Debug().Str("ad_unit", adUnitID).Int("width", width).Int("height", height).Msg("requesting banner")
	view.LoadAd()
}

type bannerListener struct {
	inst *mediation.Instance
}

func (l *bannerListener) OnBannerLoaded(banner View) {
	l.inst.Logger().Debug().Msg("onBannerLoaded")
	l.inst.Emit(mediation.Loaded(banner))
}

func (l *bannerListener) OnBannerFailed(_ View, code ErrorCode) {
	l.inst.Logger().Debug().Str("code", string(code)).Msg("onBannerFailed")
	l.inst.Emit(loadFailed(code))
}

func (l *bannerListener) OnBannerClicked(View) {
	l.inst.Logger().Debug().Msg("onBannerClicked")
	l.inst.Emit(mediation.Clicked())
}

func (l *bannerListener) OnBannerExpanded(View) {
	l.inst.Logger().Debug().Msg("onBannerExpanded")
	l.inst.Emit(mediation.FullScreen())
}

func (l *bannerListener) OnBannerCollapsed(View) {
	l.inst.Logger().Debug().Msg("onBannerCollapsed")
	l.inst.Emit(mediation.Closed())
}
