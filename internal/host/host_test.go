package host

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/mediation/mediationtest"
	"github.com/thenexusengine/tne_mediation/internal/metrics"
	"github.com/thenexusengine/tne_mediation/internal/placement"
	"github.com/thenexusengine/tne_mediation/internal/registry"
)

var activity = mediation.NewActivity("main")

// fakeAdapter loads whatever the configuration string says: "fill" loads,
// "nofill" fails with no fill, anything else fails.
type fakeAdapter struct {
	tracker   *mediation.Tracker
	destroyed int
	configs   []string
}

func (a *fakeAdapter) request(ctx mediation.Context, config string, listener mediation.Listener, view mediation.View) {
	a.configs = append(a.configs, config)
	inst := a.tracker.Begin(listener)
	if a.tracker.Format() != mediation.FormatBanner {
		if _, ok := inst.RequireActivity(ctx, "activity required"); !ok {
			return
		}
	}
	switch config {
	case "fill":
		inst.Emit(mediation.Loaded(view))
	case "nofill":
		inst.Emit(mediation.LoadFailed("no fill", true))
	default:
		inst.Emit(mediation.LoadFailed("internal error", false))
	}
}

func (a *fakeAdapter) show() error {
	return a.tracker.Show(nil, func(inst *mediation.Instance, _ *mediation.Activity) {
		inst.Emit(mediation.Shown())
		inst.Emit(mediation.Rewarded("coins", 5))
		inst.Emit(mediation.Closed())
	})
}

func (a *fakeAdapter) Destroy() {
	a.destroyed++
	a.tracker.Reset()
}

type fakeBanner struct{ *fakeAdapter }

func (b fakeBanner) RequestBannerAd(ctx mediation.Context, config string, _ mediation.ClientParams, l mediation.Listener) {
	b.request(ctx, config, l, "view")
}

type fakeInterstitial struct{ *fakeAdapter }

func (i fakeInterstitial) RequestInterstitialAd(ctx mediation.Context, config string, _ mediation.ClientParams, l mediation.Listener) {
	i.request(ctx, config, l, nil)
}
func (i fakeInterstitial) ShowInterstitial() error { return i.show() }

type fakeRewarded struct{ *fakeAdapter }

func (r fakeRewarded) RequestRewardedVideoAd(ctx mediation.Context, config string, _ mediation.ClientParams, l mediation.Listener) {
	r.request(ctx, config, l, nil)
}
func (r fakeRewarded) ShowRewardedVideoAd() error { return r.show() }

type fixture struct {
	host     *Host
	metrics  *metrics.Metrics
	built    map[mediation.Format][]*fakeAdapter
	registry *registry.Registry
}

func newFixture(t *testing.T, placements placement.StaticSource, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{built: make(map[mediation.Format][]*fakeAdapter), registry: registry.New()}

	newFake := func(format mediation.Format) *fakeAdapter {
		a := &fakeAdapter{tracker: mediation.NewTracker("fake", format)}
		f.built[format] = append(f.built[format], a)
		return a
	}
	require.NoError(t, f.registry.Register("fake", registry.Factories{
		Banner: func(mediation.MainThread) (mediation.BannerAdapter, error) {
			return fakeBanner{newFake(mediation.FormatBanner)}, nil
		},
		Interstitial: func(mediation.MainThread) (mediation.InterstitialAdapter, error) {
			return fakeInterstitial{newFake(mediation.FormatInterstitial)}, nil
		},
		RewardedVideo: func(mediation.MainThread) (mediation.RewardedVideoAdapter, error) {
			return fakeRewarded{newFake(mediation.FormatRewardedVideo)}, nil
		},
	}))
	require.NoError(t, f.registry.Register("bannerless", registry.Factories{
		Interstitial: func(mediation.MainThread) (mediation.InterstitialAdapter, error) {
			return fakeInterstitial{newFake(mediation.FormatInterstitial)}, nil
		},
	}))

	catalog := placement.NewCatalog(placements, 0)
	require.NoError(t, catalog.Refresh(t.Context()))

	f.metrics = metrics.NewMetricsWithRegistry("test", prometheus.NewRegistry())
	f.host = New(catalog, f.registry, append([]Option{WithRecorder(f.metrics)}, opts...)...)
	return f
}

func fullscreen(id string, format mediation.Format, config string) *placement.Placement {
	return &placement.Placement{ID: id, Network: "fake", Format: format, Config: config, Enabled: true}
}

func TestLoad_Banner(t *testing.T) {
	f := newFixture(t, placement.StaticSource{fullscreen("home", mediation.FormatBanner, "fill")})
	rec := &mediationtest.Recorder{}

	slot, err := f.host.Load(mediation.Application{}, "home", nil, rec)
	require.NoError(t, err)

	assert.Equal(t, []mediation.EventKind{mediation.EventLoaded}, rec.Kinds())
	loaded, ok := rec.Last(mediation.EventLoaded)
	require.True(t, ok)
	assert.Equal(t, "view", loaded.View)
	assert.ErrorIs(t, slot.Show(), ErrNotShowable)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdRequests.WithLabelValues("fake", "banner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdLoads.WithLabelValues("fake", "banner")))
}

func TestLoad_UnknownPlacement(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.host.Load(activity, "missing", nil, nil)
	assert.ErrorIs(t, err, placement.ErrNotFound)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	f := newFixture(t, placement.StaticSource{
		{ID: "top", Network: "bannerless", Format: mediation.FormatBanner, Enabled: true},
		{ID: "other", Network: "nobody", Format: mediation.FormatBanner, Enabled: true},
	})

	_, err := f.host.Load(activity, "top", nil, nil)
	assert.ErrorIs(t, err, registry.ErrUnsupportedFormat)

	_, err = f.host.Load(activity, "other", nil, nil)
	assert.ErrorIs(t, err, registry.ErrUnknownNetwork)
}

func TestLoad_NoFillAndFailureMetrics(t *testing.T) {
	f := newFixture(t, placement.StaticSource{
		fullscreen("a", mediation.FormatInterstitial, "nofill"),
		fullscreen("b", mediation.FormatInterstitial, "boom"),
	})
	rec := &mediationtest.Recorder{}

	_, err := f.host.Load(activity, "a", nil, rec)
	require.NoError(t, err)
	_, err = f.host.Load(activity, "b", nil, rec)
	require.NoError(t, err)

	assert.True(t, rec.Events()[0].NoFill)
	assert.False(t, rec.Events()[1].NoFill)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdNoFills.WithLabelValues("fake", "interstitial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdLoadFailures.WithLabelValues("fake", "interstitial")))
}

func TestShow_Rewarded(t *testing.T) {
	f := newFixture(t, placement.StaticSource{fullscreen("reward", mediation.FormatRewardedVideo, "fill")})
	rec := &mediationtest.Recorder{}

	slot, err := f.host.Load(activity, "reward", nil, rec)
	require.NoError(t, err)
	require.NoError(t, slot.Show())

	assert.Equal(t, []mediation.EventKind{
		mediation.EventLoaded,
		mediation.EventShown,
		mediation.EventReward,
		mediation.EventClosed,
	}, rec.Kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdShows.WithLabelValues("fake", "rewarded_video")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdRewards.WithLabelValues("fake", "coins")))
	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.RewardAmount.WithLabelValues("fake", "coins")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdCloses.WithLabelValues("fake", "rewarded_video")))
}

func TestShow_ErrorIsRecorded(t *testing.T) {
	f := newFixture(t, placement.StaticSource{fullscreen("inter", mediation.FormatInterstitial, "nofill")})

	slot, err := f.host.Load(activity, "inter", nil, nil)
	require.NoError(t, err)

	err = slot.Show()
	assert.ErrorIs(t, err, mediation.ErrNotLoaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdShowErrors.WithLabelValues("fake", "interstitial", "NOT_LOADED")))
}

func TestLoad_ReusesAdapterPerPlacement(t *testing.T) {
	f := newFixture(t, placement.StaticSource{fullscreen("inter", mediation.FormatInterstitial, "fill")})
	first := &mediationtest.Recorder{}
	second := &mediationtest.Recorder{}

	slot1, err := f.host.Load(activity, "inter", nil, first)
	require.NoError(t, err)
	slot2, err := f.host.Load(activity, "inter", nil, second)
	require.NoError(t, err)

	assert.Same(t, slot1, slot2)
	require.Len(t, f.built[mediation.FormatInterstitial], 1)
	assert.Equal(t, []string{"fill", "fill"}, f.built[mediation.FormatInterstitial][0].configs)

	require.NoError(t, slot2.Show())
	assert.Equal(t, 0, first.Count(mediation.EventShown))
	assert.Equal(t, 1, second.Count(mediation.EventShown))

	got, ok := f.host.Slot("inter")
	assert.True(t, ok)
	assert.Same(t, slot1, got)
}

type mutableResolver struct {
	p *placement.Placement
}

func (r *mutableResolver) Get(string) (*placement.Placement, error) { return r.p, nil }

func TestLoad_PlacementMovedToAnotherFormat(t *testing.T) {
	f := newFixture(t, nil)
	resolver := &mutableResolver{p: fullscreen("slot", mediation.FormatInterstitial, "fill")}
	h := New(resolver, f.registry)

	_, err := h.Load(activity, "slot", nil, nil)
	require.NoError(t, err)

	resolver.p = fullscreen("slot", mediation.FormatRewardedVideo, "fill")
	slot, err := h.Load(activity, "slot", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, mediation.FormatRewardedVideo, slot.Placement().Format)
	assert.Equal(t, 1, f.built[mediation.FormatInterstitial][0].destroyed)
}

func TestSlot_ReloadWhileShowing(t *testing.T) {
	f := newFixture(t, placement.StaticSource{fullscreen("inter", mediation.FormatInterstitial, "fill")})
	slot, err := f.host.Load(activity, "inter", nil, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			_, err := f.host.slot(fullscreen("inter", mediation.FormatInterstitial, "fill"))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			_ = slot.Show()
			assert.Equal(t, "inter", slot.Placement().ID)
		}
	}()
	wg.Wait()

	require.Len(t, f.built[mediation.FormatInterstitial], 1)
	assert.Equal(t, mediation.FormatInterstitial, slot.Placement().Format)
}

func TestClose_DestroysAdapters(t *testing.T) {
	f := newFixture(t, placement.StaticSource{
		fullscreen("a", mediation.FormatBanner, "fill"),
		fullscreen("b", mediation.FormatInterstitial, "fill"),
	})

	_, err := f.host.Load(activity, "a", nil, nil)
	require.NoError(t, err)
	slot, err := f.host.Load(activity, "b", nil, nil)
	require.NoError(t, err)

	f.host.Close()

	assert.Equal(t, 1, f.built[mediation.FormatBanner][0].destroyed)
	assert.Equal(t, 1, f.built[mediation.FormatInterstitial][0].destroyed)
	assert.True(t, errors.Is(slot.Show(), mediation.ErrNotLoaded))
	_, ok := f.host.Slot("a")
	assert.False(t, ok)
}

func TestLoad_ConsentSignal(t *testing.T) {
	tests := []struct {
		name    string
		store   consent.Store
		applies string
		yes     float64
		no      float64
	}{
		{name: "gdpr does not apply", store: consent.StaticStore{}, applies: "false"},
		{name: "granted", store: consent.StaticStore{Status: consent.Granted}, applies: "true", yes: 1},
		{name: "refused", store: consent.StaticStore{Status: "0"}, applies: "true", no: 1},
		{name: "no store", applies: "true", no: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, placement.StaticSource{fullscreen("home", mediation.FormatBanner, "fill")},
				WithConsentStore(tt.store))

			_, err := f.host.Load(activity, "home", mediation.ClientParams{mediation.GDPRAppliesKey: tt.applies}, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.yes, testutil.ToFloat64(f.metrics.ConsentSignals.WithLabelValues("fake", "yes")))
			assert.Equal(t, tt.no, testutil.ToFloat64(f.metrics.ConsentSignals.WithLabelValues("fake", "no")))
		})
	}
}
