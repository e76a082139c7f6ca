package ogury

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/mediation/mediationtest"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
	"github.com/thenexusengine/tne_mediation/internal/registry"
)

// activity stays reachable for the whole test binary
var activity = mediation.NewActivity("main")

const validTCF = "CPuKGCPPuKGCPNEAAAENCZCAAAAAAAAAAAAAAAAAAAAA"

type fakeBanner struct {
	adUnitID  string
	size      BannerAdSize
	listener  AdListener
	loads     int
	destroyed int
}

func (b *fakeBanner) LoadAd()  { b.loads++ }
func (b *fakeBanner) Destroy() { b.destroyed++ }

type fakeFullscreen struct {
	adUnitID string
	listener AdListener
	loaded   bool
	loads    int
	shows    int
}

func (f *fakeFullscreen) Load()          { f.loads++ }
func (f *fakeFullscreen) IsLoaded() bool { return f.loaded }
func (f *fakeFullscreen) Show()          { f.shows++ }

type thumbnailShow struct {
	activity  *mediation.Activity
	left, top int
}

type fakeThumbnail struct {
	adUnitID  string
	listener  AdListener
	loaded    bool
	maxWidth  int
	maxHeight int
	shows     []thumbnailShow
}

func (f *fakeThumbnail) Load(maxWidth, maxHeight int) {
	f.maxWidth = maxWidth
	f.maxHeight = maxHeight
}
func (f *fakeThumbnail) IsLoaded() bool { return f.loaded }
func (f *fakeThumbnail) Show(a *mediation.Activity, left, top int) {
	f.shows = append(f.shows, thumbnailShow{activity: a, left: left, top: top})
}

type fakeSDK struct {
	starts        []string
	consents      []string
	banners       []*fakeBanner
	interstitials []*fakeFullscreen
	optins        []*fakeFullscreen
	optinListener OptinVideoAdListener
	thumbnails    []*fakeThumbnail
}

func (s *fakeSDK) Start(_ mediation.Context, cfg Configuration) { s.starts = append(s.starts, cfg.AssetKey) }
func (s *fakeSDK) SetTCFConsent(_ mediation.Context, assetKey, tcf string) {
	s.consents = append(s.consents, assetKey+"="+tcf)
}

func (s *fakeSDK) NewBannerAdView(_ mediation.Context, adUnitID string, size BannerAdSize, l AdListener) BannerAdView {
	b := &fakeBanner{adUnitID: adUnitID, size: size, listener: l}
	s.banners = append(s.banners, b)
	return b
}

func (s *fakeSDK) NewInterstitialAd(_ mediation.Context, adUnitID string, l AdListener) FullscreenAd {
	f := &fakeFullscreen{adUnitID: adUnitID, listener: l}
	s.interstitials = append(s.interstitials, f)
	return f
}

func (s *fakeSDK) NewOptinVideoAd(_ mediation.Context, adUnitID string, l OptinVideoAdListener) FullscreenAd {
	f := &fakeFullscreen{adUnitID: adUnitID, listener: l}
	s.optins = append(s.optins, f)
	s.optinListener = l
	return f
}

func (s *fakeSDK) NewThumbnailAd(_ mediation.Context, adUnitID string, l AdListener) ThumbnailAd {
	f := &fakeThumbnail{adUnitID: adUnitID, listener: l}
	s.thumbnails = append(s.thumbnails, f)
	return f
}

func TestStartsSDKOnEveryRequest(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewBannerAdapter(sdk, WithSession(NewSession(sdk)))

	a.RequestBannerAd(activity, "asset-1|unit-a", nil, &mediationtest.Recorder{})
	a.RequestBannerAd(activity, "asset-2|unit-b", nil, &mediationtest.Recorder{})

	assert.Equal(t, []string{"asset-1", "asset-2"}, sdk.starts)
	assert.Equal(t, 1, sdk.banners[0].destroyed, "previous banner released")
}

func TestBanner_Sizes(t *testing.T) {
	tests := []struct {
		config string
		want   BannerAdSize
	}{
		{config: "asset|unit", want: SmallBanner320x50},
		{config: "asset|unit|0", want: SmallBanner320x50},
		{config: "asset|unit|1", want: MPU300x250},
		{config: "asset|unit|2", want: SmallBanner320x50},
	}
	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			sdk := &fakeSDK{}
			a := NewBannerAdapter(sdk, WithSession(NewSession(sdk)))
			rec := &mediationtest.Recorder{}
			a.RequestBannerAd(activity, tt.config, nil, rec)

			require.Len(t, sdk.banners, 1)
			banner := sdk.banners[0]
			assert.Equal(t, tt.want, banner.size)
			assert.Equal(t, "unit", banner.adUnitID)

			banner.listener.OnAdLoaded()
			loaded, ok := rec.Last(mediation.EventLoaded)
			require.True(t, ok)
			assert.Same(t, banner, loaded.View)
		})
	}
}

func TestTCFConsentForwarding(t *testing.T) {
	tests := []struct {
		name  string
		store consent.Store
		want  []string
	}{
		{name: "valid string forwarded", store: consent.StaticStore{TCF: validTCF}, want: []string{"asset=" + validTCF}},
		{name: "invalid string dropped", store: consent.StaticStore{TCF: "garbage"}},
		{name: "no string", store: consent.StaticStore{}},
		{name: "no store", store: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &fakeSDK{}
			a := NewInterstitialAdapter(sdk, WithSession(NewSession(sdk)), WithConsentStore(tt.store))
			a.RequestInterstitialAd(activity, "asset|unit", nil, &mediationtest.Recorder{})

			assert.Equal(t, tt.want, sdk.consents)
			assert.Equal(t, []string{"asset"}, sdk.starts)
		})
	}
}

func TestNoFillClassification(t *testing.T) {
	for code := 2000; code <= 2010; code++ {
		noFill, _ := Classify(code)
		assert.Equal(t, code == ErrorCodeAdDisabled || code == ErrorCodeAdNotAvailable, noFill, "code %d", code)
	}
	noFill, msg := Classify(ErrorCodeNoInternetConnection)
	assert.False(t, noFill)
	assert.Contains(t, msg, "NO_INTERNET_CONNECTION")

	sdk := &fakeSDK{}
	a := NewInterstitialAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}
	a.RequestInterstitialAd(activity, "asset|unit", nil, rec)
	sdk.interstitials[0].listener.OnAdError(&Error{Code: ErrorCodeAdNotAvailable, Message: "no ad"})

	failed, ok := rec.Last(mediation.EventLoadFailed)
	require.True(t, ok)
	assert.True(t, failed.NoFill)
}

func TestInterstitial_FullscreenRequiresActivity(t *testing.T) {
	sdk := &fakeSDK{}
	rec := &mediationtest.Recorder{}

	NewInterstitialAdapter(sdk, WithSession(NewSession(sdk))).
		RequestInterstitialAd(mediation.Application{}, "asset|unit", nil, rec)
	NewOptinVideoAdapter(sdk, WithSession(NewSession(sdk))).
		RequestRewardedVideoAd(mediation.Application{}, "asset|unit", nil, rec)
	NewThumbnailAdapter(sdk, WithSession(NewSession(sdk))).
		RequestBannerAd(mediation.Application{}, "asset|unit", nil, rec)

	assert.Empty(t, sdk.starts)
	assert.Equal(t, 3, rec.Count(mediation.EventLoadFailed))
	for _, e := range rec.Events() {
		assert.Contains(t, e.Message, "Activity")
		assert.False(t, e.NoFill)
	}
}

func TestInterstitial_Lifecycle(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewInterstitialAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}

	a.RequestInterstitialAd(activity, "asset|unit", nil, rec)
	ad := sdk.interstitials[0]
	assert.Equal(t, 1, ad.loads)
	assert.ErrorIs(t, a.ShowInterstitial(), mediation.ErrNotLoaded)

	ad.loaded = true
	ad.listener.OnAdLoaded()
	require.NoError(t, a.ShowInterstitial())
	assert.Equal(t, 1, ad.shows)

	ad.listener.OnAdDisplayed()
	ad.listener.OnAdClicked()
	ad.listener.OnAdClosed()
	assert.Equal(t, []mediation.EventKind{
		mediation.EventLoaded, mediation.EventShown, mediation.EventClicked, mediation.EventClosed,
	}, rec.Kinds())
}

func TestInterstitial_ErrorAfterLoadIsShowFailure(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewInterstitialAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}

	a.RequestInterstitialAd(activity, "asset|unit", nil, rec)
	ad := sdk.interstitials[0]
	ad.loaded = true
	ad.listener.OnAdLoaded()
	require.NoError(t, a.ShowInterstitial())
	ad.listener.OnAdError(&Error{Code: ErrorCodeAnotherAdAlreadyDisplayed})

	assert.Equal(t, []mediation.EventKind{mediation.EventLoaded, mediation.EventShowFailed}, rec.Kinds())
}

func TestOptinVideo_NumericRewardsOnly(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewOptinVideoAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}

	a.RequestRewardedVideoAd(activity, "asset|unit", nil, rec)
	ad := sdk.optins[0]
	ad.loaded = true
	sdk.optinListener.OnAdLoaded()
	require.NoError(t, a.ShowRewardedVideoAd())
	sdk.optinListener.OnAdDisplayed()

	sdk.optinListener.OnAdRewarded(&Reward{Name: "coins", Value: "10"})
	sdk.optinListener.OnAdRewarded(&Reward{Name: "life", Value: "one"})
	sdk.optinListener.OnAdRewarded(nil)

	require.Equal(t, 1, rec.Count(mediation.EventReward))
	reward, _ := rec.Last(mediation.EventReward)
	assert.Equal(t, mediation.Reward{Label: "coins", Amount: 10}, reward.Reward)
}

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		config  string
		want    Geometry
		wantErr bool
	}{
		{config: "asset|unit", want: Geometry{}},
		{config: "asset|unit|180|320|10", want: Geometry{}},
		{config: "asset|unit|180|320|10|20", want: Geometry{MaxWidth: 180, MaxHeight: 320, LeftMargin: 10, TopMargin: 20}},
		{config: "asset|unit|180|tall|10|20", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			got, err := ParseGeometry(params.Decode(tt.config))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThumbnail_ShowsOnAttach(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewThumbnailAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}

	a.RequestBannerAd(activity, "asset|unit|180|320|10|20", nil, rec)
	require.Len(t, sdk.thumbnails, 1)
	thumb := sdk.thumbnails[0]
	assert.Equal(t, 180, thumb.maxWidth)
	assert.Equal(t, 320, thumb.maxHeight)

	thumb.loaded = true
	thumb.listener.OnAdLoaded()
	loaded, ok := rec.Last(mediation.EventLoaded)
	require.True(t, ok)
	placeholder, ok := loaded.View.(*ThumbnailView)
	require.True(t, ok)

	placeholder.OnAttachedToWindow()
	require.Len(t, thumb.shows, 1)
	assert.Equal(t, thumbnailShow{activity: activity, left: 10, top: 20}, thumb.shows[0])

	a.Destroy()
	placeholder.OnAttachedToWindow()
	assert.Len(t, thumb.shows, 1, "destroyed thumbnail is not shown")
}

func TestThumbnail_InvalidGeometryFails(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewThumbnailAdapter(sdk, WithSession(NewSession(sdk)))
	rec := &mediationtest.Recorder{}

	a.RequestBannerAd(activity, "asset|unit|x|320|10|20", nil, rec)

	assert.Empty(t, sdk.thumbnails)
	failed, ok := rec.Last(mediation.EventLoadFailed)
	require.True(t, ok)
	assert.False(t, failed.NoFill)
	assert.Contains(t, failed.Message, string(mediation.ErrorCodeBadParams))
}

func TestRegistryFactories(t *testing.T) {
	Install(nil)
	_, err := registry.Default.NewBanner(thumbnailName)
	assert.ErrorIs(t, err, ErrSDKNotInstalled)

	Install(&fakeSDK{})
	defer Install(nil)

	thumb, err := registry.Default.NewBanner(thumbnailName)
	require.NoError(t, err)
	assert.IsType(t, &ThumbnailAdapter{}, thumb)

	optin, err := registry.Default.NewRewardedVideo(networkName)
	require.NoError(t, err)
	assert.IsType(t, &OptinVideoAdapter{}, optin)

	assert.False(t, registry.Default.Supports(thumbnailName, mediation.FormatInterstitial))
}
