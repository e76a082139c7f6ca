// Package mediationtest provides listener doubles for adapter tests.
package mediationtest

import (
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

// Recorder is a mediation.Listener that records every callback as an Event.
type Recorder struct {
	mu     sync.Mutex
	events []mediation.Event
}

func (r *Recorder) add(e mediation.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) OnLoaded(view mediation.View) { r.add(mediation.Loaded(view)) }
func (r *Recorder) AdRequestFailed(message string, isNoFill bool) {
	r.add(mediation.LoadFailed(message, isNoFill))
}
func (r *Recorder) OnShown()                      { r.add(mediation.Shown()) }
func (r *Recorder) OnFailedToShow(message string) { r.add(mediation.ShowFailed(message)) }
func (r *Recorder) OnAdClicked()                  { r.add(mediation.Clicked()) }
func (r *Recorder) OnAdClosed()                   { r.add(mediation.Closed()) }
func (r *Recorder) OnAdFullScreen()               { r.add(mediation.FullScreen()) }
func (r *Recorder) OnReward(reward mediation.Reward) {
	r.add(mediation.Rewarded(reward.Label, reward.Amount))
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []mediation.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mediation.Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order
func (r *Recorder) Kinds() []mediation.EventKind {
	events := r.Events()
	kinds := make([]mediation.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Count returns how many events of kind were recorded
func (r *Recorder) Count(kind mediation.EventKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the last recorded event of kind
func (r *Recorder) Last(kind mediation.EventKind) (mediation.Event, bool) {
	events := r.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i], true
		}
	}
	return mediation.Event{}, false
}
