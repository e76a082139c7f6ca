// Package mediation defines the uniform contract between the host ad SDK and
// the per-network mediation adapters.
package mediation

import (
	"sync/atomic"
	"weak"
)

// Context is the host-supplied execution context of an ad request.
type Context interface {
	// Activity returns the foreground activity backing this context, or nil
	// when the context is not an activity (application or service context).
	Activity() *Activity
}

// Application is a non-activity context.
type Application struct {
	Name string
}

// Activity implements Context. An application context has no activity.
func (Application) Activity() *Activity { return nil }

// Activity is a foreground display surface owned by the host application.
// Adapters never own an Activity; they reference it through ActivityRef.
type Activity struct {
	id       string
	finished atomic.Bool
}

// NewActivity creates a live activity with the given identifier. The activity
// is always heap allocated so it can be weakly referenced.
//
//go:noinline
func NewActivity(id string) *Activity {
	return &Activity{id: id}
}

// Activity implements Context: an activity is its own foreground activity.
func (a *Activity) Activity() *Activity { return a }

// ID returns the activity identifier
func (a *Activity) ID() string { return a.id }

// Finish marks the activity as destroyed by the host.
func (a *Activity) Finish() { a.finished.Store(true) }

// Finishing reports whether the host destroyed the activity.
func (a *Activity) Finishing() bool { return a.finished.Load() }

// ActivityRef is a non-owning reference to an Activity captured at request
// time. It does not keep the activity reachable.
type ActivityRef struct {
	id  string
	ptr weak.Pointer[Activity]
}

// NewActivityRef captures a weak reference to a.
func NewActivityRef(a *Activity) ActivityRef {
	if a == nil {
		return ActivityRef{}
	}
	return ActivityRef{id: a.id, ptr: weak.Make(a)}
}

// ID returns the identifier of the referenced activity, even after it died.
func (r ActivityRef) ID() string { return r.id }

// Get returns the activity if it is still reachable and not finishing.
func (r ActivityRef) Get() (*Activity, bool) {
	a := r.ptr.Value()
	if a == nil || a.Finishing() {
		return nil, false
	}
	return a, true
}
