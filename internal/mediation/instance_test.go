package mediation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveActivity stays reachable for the whole test binary
var liveActivity = NewActivity("live")

type recordingListener struct {
	events []Event
}

func (r *recordingListener) OnLoaded(view View) { r.events = append(r.events, Loaded(view)) }
func (r *recordingListener) AdRequestFailed(message string, isNoFill bool) {
	r.events = append(r.events, LoadFailed(message, isNoFill))
}
func (r *recordingListener) OnShown()                { r.events = append(r.events, Shown()) }
func (r *recordingListener) OnFailedToShow(m string) { r.events = append(r.events, ShowFailed(m)) }
func (r *recordingListener) OnAdClicked()            { r.events = append(r.events, Clicked()) }
func (r *recordingListener) OnAdClosed()             { r.events = append(r.events, Closed()) }
func (r *recordingListener) OnAdFullScreen()         { r.events = append(r.events, FullScreen()) }
func (r *recordingListener) OnReward(rw Reward) {
	r.events = append(r.events, Rewarded(rw.Label, rw.Amount))
}

func (r *recordingListener) kinds() []EventKind {
	kinds := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func TestTracker_FullLifecycle(t *testing.T) {
	tr := NewTracker("test", FormatInterstitial)
	l := &recordingListener{}
	inst := tr.Begin(l)

	assert.Equal(t, StateRequested, inst.State())
	assert.NotEmpty(t, inst.ID())

	activity := NewActivity("main")
	_, ok := inst.RequireActivity(activity, "unused")
	require.True(t, ok)

	inst.Emit(Loaded(nil))
	assert.Equal(t, StateLoaded, inst.State())

	var shownWith *Activity
	err := tr.Show(ImmediateThread{}, func(i *Instance, a *Activity) {
		shownWith = a
		i.Emit(Shown())
		i.Emit(Clicked())
		i.Emit(Rewarded("coins", 10))
		i.Emit(Closed())
	})
	require.NoError(t, err)
	assert.Same(t, activity, shownWith)
	assert.Equal(t, StateClosed, inst.State())
	assert.Equal(t, []EventKind{EventLoaded, EventShown, EventClicked, EventReward, EventClosed}, l.kinds())
	assert.Equal(t, Reward{Label: "coins", Amount: 10}, l.events[3].Reward)
}

func TestTracker_SupersededInstanceIsSilent(t *testing.T) {
	tr := NewTracker("test", FormatBanner)
	first := &recordingListener{}
	second := &recordingListener{}

	released := 0
	old := tr.Begin(first)
	old.SetRelease(func() { released++ })

	cur := tr.Begin(second)
	assert.Equal(t, 1, released)
	assert.True(t, old.Released())
	assert.False(t, old.Live())
	assert.True(t, cur.Live())

	old.Emit(Loaded("stale-view"))
	old.Emit(Clicked())
	assert.Empty(t, first.events)
	assert.Empty(t, second.events)

	cur.Emit(Loaded("view"))
	require.Len(t, second.events, 1)
	assert.Equal(t, "view", second.events[0].View)
}

func TestTracker_ShowErrors(t *testing.T) {
	t.Run("nothing requested", func(t *testing.T) {
		tr := NewTracker("test", FormatInterstitial)
		err := tr.Show(nil, func(*Instance, *Activity) {
			t.Fatal("show must not run")
		})
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("not loaded yet", func(t *testing.T) {
		tr := NewTracker("test", FormatInterstitial)
		inst := tr.Begin(&recordingListener{})
		inst.RequireActivity(liveActivity, "unused")
		err := tr.Show(nil, func(*Instance, *Activity) {
			t.Fatal("show must not run")
		})
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("load failed", func(t *testing.T) {
		tr := NewTracker("test", FormatInterstitial)
		inst := tr.Begin(&recordingListener{})
		inst.RequireActivity(liveActivity, "unused")
		inst.Emit(LoadFailed("nope", true))
		err := tr.Show(nil, func(*Instance, *Activity) {
			t.Fatal("show must not run")
		})
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("activity finished", func(t *testing.T) {
		tr := NewTracker("test", FormatRewardedVideo)
		inst := tr.Begin(&recordingListener{})
		activity := NewActivity("gone")
		inst.RequireActivity(activity, "unused")
		inst.Emit(Loaded(nil))
		activity.Finish()

		err := tr.Show(nil, func(*Instance, *Activity) {
			t.Fatal("show must not run")
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrActivityGone)

		var adapterErr *AdapterError
		require.True(t, errors.As(err, &adapterErr))
		assert.Equal(t, ErrorCodeActivityGone, adapterErr.Code)
		assert.Contains(t, adapterErr.Error(), "gone")
	})

	t.Run("after destroy", func(t *testing.T) {
		tr := NewTracker("test", FormatInterstitial)
		inst := tr.Begin(&recordingListener{})
		inst.RequireActivity(liveActivity, "unused")
		inst.Emit(Loaded(nil))
		tr.Reset()
		tr.Reset()
		err := tr.Show(nil, func(*Instance, *Activity) {
			t.Fatal("show must not run")
		})
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("shown twice", func(t *testing.T) {
		tr := NewTracker("test", FormatInterstitial)
		inst := tr.Begin(&recordingListener{})
		inst.RequireActivity(liveActivity, "unused")
		inst.Emit(Loaded(nil))
		require.NoError(t, tr.Show(nil, func(i *Instance, _ *Activity) { i.Emit(Shown()) }))
		assert.ErrorIs(t, tr.Show(nil, func(*Instance, *Activity) {}), ErrNotLoaded)
	})
}

func TestInstance_DisallowedTransitionsDropped(t *testing.T) {
	tr := NewTracker("test", FormatInterstitial)
	l := &recordingListener{}
	inst := tr.Begin(l)

	inst.Emit(Shown())
	inst.Emit(ShowFailed("early"))
	assert.Empty(t, l.events)

	inst.Emit(Loaded(nil))
	inst.Emit(Loaded(nil))
	inst.Emit(LoadFailed("late", false))
	assert.Equal(t, []EventKind{EventLoaded}, l.kinds())
}

func TestInstance_AfterShownRunsAfterDelivery(t *testing.T) {
	tr := NewTracker("test", FormatInterstitial)
	l := &recordingListener{}
	inst := tr.Begin(l)
	inst.Emit(Loaded(nil))

	var seen int
	inst.AfterShown(func() { seen = len(l.events) })
	inst.Emit(Shown())

	assert.Equal(t, 2, seen)
}

func TestInstance_SetReleaseAfterRelease(t *testing.T) {
	tr := NewTracker("test", FormatBanner)
	inst := tr.Begin(&recordingListener{})
	inst.ReleaseNative()

	called := false
	inst.SetRelease(func() { called = true })
	assert.True(t, called)
}

func TestEvent_DeliverNilListener(t *testing.T) {
	assert.NotPanics(t, func() { Clicked().Deliver(nil) })
}

func TestInstance_RequireActivity(t *testing.T) {
	tr := NewTracker("test", FormatRewardedVideo)
	l := &recordingListener{}
	inst := tr.Begin(l)
	_, ok := inst.RequireActivity(Application{Name: "app"}, "rewarded video requires an Activity context")
	assert.False(t, ok)
	require.Len(t, l.events, 1)
	assert.Equal(t, EventLoadFailed, l.events[0].Kind)
	assert.False(t, l.events[0].NoFill)
	assert.Contains(t, l.events[0].Message, "Activity")
	assert.Equal(t, StateLoadFailed, inst.State())

	inst = tr.Begin(l)
	activity := NewActivity("main")
	got, ok := inst.RequireActivity(activity, "unused")
	assert.True(t, ok)
	assert.Same(t, activity, got)
	assert.Equal(t, "main", inst.ActivityRef().ID())
}

func TestInstance_AttachClearedOnRelease(t *testing.T) {
	tr := NewTracker("test", FormatInterstitial)
	inst := tr.Begin(&recordingListener{})
	inst.Attach("native-ad")
	assert.Equal(t, "native-ad", inst.Native())

	tr.Reset()
	assert.Nil(t, inst.Native())
	inst.Attach("late")
	assert.Nil(t, inst.Native())
}

func TestActivityRef(t *testing.T) {
	var empty ActivityRef
	_, ok := empty.Get()
	assert.False(t, ok)

	a := NewActivity("x")
	ref := NewActivityRef(a)
	got, ok := ref.Get()
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, "x", ref.ID())

	a.Finish()
	_, ok = ref.Get()
	assert.False(t, ok)
	assert.Equal(t, "x", ref.ID())
}

// hostActivity is declared the way hosts keep their long-lived activity
var hostActivity = NewActivity("host")

func TestInstance_PackageLevelActivity(t *testing.T) {
	tr := NewTracker("test", FormatRewardedVideo)
	l := &recordingListener{}
	inst := tr.Begin(l)

	got, ok := inst.RequireActivity(hostActivity, "unused")
	require.True(t, ok)
	assert.Same(t, hostActivity, got)

	inst.Emit(Loaded(nil))
	var shownOn *Activity
	require.NoError(t, tr.Show(nil, func(_ *Instance, a *Activity) { shownOn = a }))
	assert.Same(t, hostActivity, shownOn)
}

func TestInstance_RequireActivityBadContextError(t *testing.T) {
	tr := NewTracker("test", FormatInterstitial)
	l := &recordingListener{}
	inst := tr.Begin(l)

	_, ok := inst.RequireActivity(Application{}, "interstitial needs an Activity")
	require.False(t, ok)
	require.Len(t, l.events, 1)
	assert.Contains(t, l.events[0].Message, string(ErrorCodeBadContext))
	assert.Contains(t, l.events[0].Message, "interstitial needs an Activity")

	err := NewBadContextError("test", FormatInterstitial, "interstitial needs an Activity")
	assert.ErrorIs(t, err, ErrNotActivity)
	assert.Equal(t, l.events[0].Message, err.Error())
}
