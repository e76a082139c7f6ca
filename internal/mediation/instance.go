package mediation

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// State is the lifecycle state of one ad instance
type State int

const (
	StateRequested State = iota + 1
	StateLoaded
	StateShowing
	StateShown
	StateClosed
	StateLoadFailed
	StateShowFailed
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateLoaded:
		return "loaded"
	case StateShowing:
		return "showing"
	case StateShown:
		return "shown"
	case StateClosed:
		return "closed"
	case StateLoadFailed:
		return "load_failed"
	case StateShowFailed:
		return "show_failed"
	}
	return "unknown"
}

// Tracker owns the single live ad instance of one adapter. Starting a new
// instance supersedes the previous one: its native resources are released
// and its late callbacks are dropped.
type Tracker struct {
	network string
	format  Format
	log     zerolog.Logger

	mu      sync.Mutex
	current *Instance
}

// NewTracker creates a tracker for one adapter
func NewTracker(network string, format Format) *Tracker {
	return &Tracker{
		network: network,
		format:  format,
		log:     logger.Network(network).With().Str("format", string(format)).Logger(),
	}
}

// Network returns the network name
func (t *Tracker) Network() string { return t.network }

// Format returns the adapter format
func (t *Tracker) Format() Format { return t.format }

// Begin discards the current instance and starts a new one reporting to listener.
func (t *Tracker) Begin(listener Listener) *Instance {
	inst := &Instance{
		id:       uuid.NewString(),
		tracker:  t,
		listener: listener,
		state:    StateRequested,
	}
	inst.log = t.log.With().Str("instance", inst.id).Logger()

	t.mu.Lock()
	prev := t.current
	t.current = inst
	t.mu.Unlock()

	if prev != nil {
		prev.log.Debug().Str("superseded_by", inst.id).Msg("ad instance superseded")
		prev.ReleaseNative()
	}
	inst.log.Debug().Msg("ad instance requested")
	return inst
}

// Current returns the live instance, or nil
func (t *Tracker) Current() *Instance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Reset releases and detaches the current instance. Safe to call repeatedly.
func (t *Tracker) Reset() {
	t.mu.Lock()
	prev := t.current
	t.current = nil
	t.mu.Unlock()

	if prev != nil {
		prev.ReleaseNative()
		prev.log.Debug().Msg("ad instance destroyed")
	}
}

// Show validates that the live instance can be displayed and posts show onto
// the main thread with the activity captured at request time.
func (t *Tracker) Show(thread MainThread, show func(inst *Instance, activity *Activity)) error {
	inst := t.Current()
	if inst == nil {
		return NewNotLoadedError(t.network, t.format)
	}
	ref := inst.ActivityRef()
	activity, ok := ref.Get()
	if !ok {
		inst.log.Warn().Str("activity", ref.ID()).Msg("display activity is gone")
		return NewActivityGoneError(t.network, t.format, ref.ID())
	}
	if !inst.beginShow() {
		return NewNotLoadedError(t.network, t.format)
	}
	if thread == nil {
		thread = ImmediateThread{}
	}
	thread.Post(func() { show(inst, activity) })
	return nil
}

// Instance is one requested creative. Events emitted after the instance was
// superseded never reach the host.
type Instance struct {
	id       string
	tracker  *Tracker
	listener Listener
	log      zerolog.Logger

	mu       sync.Mutex
	state    State
	activity ActivityRef
	native   any
	released bool
	release  func()
	onShown  []func()
}

// ID returns the instance identifier
func (i *Instance) ID() string { return i.id }

// Logger returns the instance-scoped logger
func (i *Instance) Logger() *zerolog.Logger { return &i.log }

// State returns the lifecycle state
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Live reports whether the instance is still its tracker's current instance
func (i *Instance) Live() bool {
	return i.tracker.Current() == i
}

// RequireActivity captures the activity behind ctx for a later Show. When ctx
// is not an activity it emits a BAD_CONTEXT load failure carrying message and
// returns false.
func (i *Instance) RequireActivity(ctx Context, message string) (*Activity, bool) {
	var a *Activity
	if ctx != nil {
		a = ctx.Activity()
	}
	if a == nil {
		err := NewBadContextError(i.tracker.network, i.tracker.format, message)
		i.log.Warn().Err(err).Msg("request made without an activity context")
		i.Emit(LoadFailed(err.Error(), false))
		return nil, false
	}
	i.mu.Lock()
	i.activity = NewActivityRef(a)
	i.mu.Unlock()
	return a, true
}

// ActivityRef returns the activity captured by RequireActivity
func (i *Instance) ActivityRef() ActivityRef {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.activity
}

// Attach stores the loaded native ad object
func (i *Instance) Attach(native any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.released {
		i.native = native
	}
}

// Native returns the attached native ad object, nil once released
func (i *Instance) Native() any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.native
}

// SetRelease registers the function releasing the native ad object.
func (i *Instance) SetRelease(fn func()) {
	i.mu.Lock()
	released := i.released
	if !released {
		i.release = fn
	}
	i.mu.Unlock()
	if released && fn != nil {
		fn()
	}
}

// ReleaseNative releases the native ad object once. The instance keeps
// forwarding events but can no longer be shown.
func (i *Instance) ReleaseNative() {
	i.mu.Lock()
	if i.released {
		i.mu.Unlock()
		return
	}
	i.released = true
	i.native = nil
	fn := i.release
	i.release = nil
	i.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Released reports whether the native object was released
func (i *Instance) Released() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.released
}

// AfterShown registers a hook run once the shown event was delivered.
func (i *Instance) AfterShown(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onShown = append(i.onShown, fn)
}

func (i *Instance) beginShow() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != StateLoaded || i.released {
		return false
	}
	i.state = StateShowing
	return true
}

// Emit applies e to the lifecycle and forwards it to the host listener.
func (i *Instance) Emit(e Event) {
	if !i.Live() {
		i.log.Warn().Str("event", e.Kind.String()).Msg("dropping event of superseded ad instance")
		return
	}

	i.mu.Lock()
	from := i.state
	ok := true
	switch e.Kind {
	case EventLoaded:
		ok = from == StateRequested
		if ok {
			i.state = StateLoaded
		}
	case EventLoadFailed:
		ok = from == StateRequested
		if ok {
			i.state = StateLoadFailed
		}
	case EventShown:
		ok = from == StateLoaded || from == StateShowing
		if ok {
			i.state = StateShown
		}
	case EventShowFailed:
		ok = from == StateLoaded || from == StateShowing
		if ok {
			i.state = StateShowFailed
		}
	case EventClosed:
		if from == StateShown {
			i.state = StateClosed
		}
	}
	var hooks []func()
	if ok && e.Kind == EventShown {
		hooks = i.onShown
		i.onShown = nil
	}
	i.mu.Unlock()

	if !ok {
		i.log.Warn().
			Str("event", e.Kind.String()).
			Str("state", from.String()).
			Msg("dropping event not allowed in current state")
		return
	}

	i.log.Debug().Str("event", e.Kind.String()).Msg("forwarding event")
	e.Deliver(i.listener)

	for _, fn := range hooks {
		fn()
	}
}
