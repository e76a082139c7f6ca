package google

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// BannerAdapter serves AdMob and Ad Manager banners
type BannerAdapter struct {
	base
}

// NewBannerAdapter creates a banner adapter over sdk
func NewBannerAdapter(sdk SDK, opts ...Option) *BannerAdapter {
	return &BannerAdapter{base: newBase(sdk, mediation.FormatBanner, opts)}
}

// RequestBannerAd requests a banner. The view is handed back through OnLoaded.
func (a *BannerAdapter) RequestBannerAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	fields := params.Decode(config)
	req := a.adRequest(ctx, fields.Key(), clientParams)

	l := &bannerListener{inst: inst}
	view := a.sdk.NewAdView(ctx, fields.AdUnitID(), bannerSize(fields.SizeToken()), req.AdManager, l)
	l.view = view
	inst.SetRelease(view.Destroy)

	inst.Logger().Debug().
		Str("ad_unit", fields.AdUnitID()).
		Bool("ad_manager", req.AdManager).
		Bool("npa", req.NonPersonalized).
		Msg("requesting banner")
	view.LoadAd(req)
}

func bannerSize(token string) AdSize {
	switch token {
	case "1":
		return MediumRectangle
	case "2":
		return Leaderboard
	case "3":
		return LargeBanner
	default:
		return Banner
	}
}

type bannerListener struct {
	inst *mediation.Instance
	view AdView
}

func (l *bannerListener) OnAdLoaded() {
	l.inst.Logger().Debug().Msg("onAdLoaded")
	l.inst.Emit(mediation.Loaded(l.view))
}

func (l *bannerListener) OnAdFailedToLoad(err LoadAdError) {
	l.inst.Logger().Debug().Str("error", err.String()).Msg("onAdFailedToLoad")
	l.inst.Emit(loadFailed(mediation.FormatBanner, err))
}

// OnAdOpened fires when the user opens the ad destination, reported as a click
func (l *bannerListener) OnAdOpened() {
	l.inst.Logger().Debug().Msg("onAdOpened")
	l.inst.Emit(mediation.Clicked())
}

func (l *bannerListener) OnAdClicked() {
	l.inst.Logger().Debug().Msg("onAdClicked")
}

func (l *bannerListener) OnAdImpression() {
	l.inst.Logger().Debug().Msg("onAdImpression")
}

func (l *bannerListener) OnAdClosed() {
	l.inst.Logger().Debug().Msg("onAdClosed")
	l.inst.Emit(mediation.Closed())
}
