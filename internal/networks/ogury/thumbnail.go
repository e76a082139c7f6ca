package ogury

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// Thumbnail geometry tokens, read only when all four are present
const (
	maxWidthIndex = params.FormatIndex + iota
	maxHeightIndex
	leftMarginIndex
	topMarginIndex
)

// Geometry places a thumbnail ad
type Geometry struct {
	MaxWidth   int
	MaxHeight  int
	LeftMargin int
	TopMargin  int
}

// ParseGeometry reads the thumbnail geometry. Fewer than six tokens yield a
// zero geometry; a malformed token is an error.
func ParseGeometry(fields params.Fields) (Geometry, error) {
	if fields.Len() <= topMarginIndex {
		return Geometry{}, nil
	}
	var g Geometry
	var err error
	for _, tok := range []struct {
		index int
		dst   *int
	}{
		{maxWidthIndex, &g.MaxWidth},
		{maxHeightIndex, &g.MaxHeight},
		{leftMarginIndex, &g.LeftMargin},
		{topMarginIndex, &g.TopMargin},
	} {
		if *tok.dst, err = fields.Int(tok.index); err != nil {
			return Geometry{}, err
		}
	}
	return g, nil
}

// ThumbnailAdapter serves Ogury thumbnails through the banner contract. The
// host receives a placeholder view; the thumbnail floats over the activity
// once the placeholder is attached.
type ThumbnailAdapter struct {
	base
}

// NewThumbnailAdapter creates a thumbnail adapter over sdk
func NewThumbnailAdapter(sdk SDK, opts ...Option) *ThumbnailAdapter {
	return &ThumbnailAdapter{base: newBase(sdk, mediation.FormatBanner, opts)}
}

// RequestBannerAd requests a thumbnail. ctx must be an activity.
func (a *ThumbnailAdapter) RequestBannerAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	if _, ok := inst.RequireActivity(ctx, "Ogury thumbnail requires the Context to be an Activity for display"); !ok {
		return
	}
	fields := params.Decode(config)
	geometry, err := ParseGeometry(fields)
	if err != nil {
		badParams := mediation.NewBadParamsError(networkName, mediation.FormatBanner, "Ogury thumbnail has invalid geometry", err)
		inst.Logger().Warn().Err(badParams).Msg("invalid thumbnail geometry")
		inst.Emit(mediation.LoadFailed(badParams.Error(), false))
		return
	}
	a.configure(ctx, inst, fields)

	placeholder := &ThumbnailView{inst: inst, geometry: geometry}
	ad := a.sdk.NewThumbnailAd(ctx, fields.AdUnitID(), &adListener{inst: inst, view: placeholder})
	placeholder.ad = ad
	inst.Attach(ad)

	inst.Logger().Debug().
		Str("ad_unit", fields.AdUnitID()).
		Int("max_width", geometry.MaxWidth).
		Int("max_height", geometry.MaxHeight).
		Msg("requesting thumbnail")
	ad.Load(geometry.MaxWidth, geometry.MaxHeight)
}

// ThumbnailView is the placeholder handed to the host for a thumbnail ad
type ThumbnailView struct {
	inst     *mediation.Instance
	ad       ThumbnailAd
	geometry Geometry
}

// Geometry returns the thumbnail placement
func (v *ThumbnailView) Geometry() Geometry { return v.geometry }

// OnAttachedToWindow shows the loaded thumbnail over the request activity
func (v *ThumbnailView) OnAttachedToWindow() {
	if !v.inst.Live() || v.inst.Native() == nil {
		return
	}
	activity, ok := v.inst.ActivityRef().Get()
	if !ok {
		v.inst.Logger().Warn().Msg("activity gone before thumbnail display")
		return
	}
	if !v.ad.IsLoaded() {
		return
	}
	v.ad.Show(activity, v.geometry.LeftMargin, v.geometry.TopMargin)
}
