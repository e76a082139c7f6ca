package ogury

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// BannerAdapter serves Ogury banners
type BannerAdapter struct {
	base
}

// NewBannerAdapter creates a banner adapter over sdk
func NewBannerAdapter(sdk SDK, opts ...Option) *BannerAdapter {
	return &BannerAdapter{base: newBase(sdk, mediation.FormatBanner, opts)}
}

// RequestBannerAd requests a banner. Size token 1 selects the 300x250 MPU,
// anything else the 320x50 small banner.
func (a *BannerAdapter) RequestBannerAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	fields := params.Decode(config)
	a.configure(ctx, inst, fields)

	l := &adListener{inst: inst}
	size := bannerSize(fields.SizeToken())
	view := a.sdk.NewBannerAdView(ctx, fields.AdUnitID(), size, l)
	l.view = view
	inst.SetRelease(view.Destroy)

	inst.Logger().Debug().Str("ad_unit", fields.AdUnitID()).Str("size", size.Name).Msg("requesting banner")
	view.LoadAd()
}

func bannerSize(token string) BannerAdSize {
	if token == "1" {
		return MPU300x250
	}
	return SmallBanner320x50
}
