package mediation

import "fmt"

// View is an opaque displayable handle returned by banner adapters.
type View any

// Reward is earned by the user after a completed rewarded view.
type Reward struct {
	Label  string
	Amount float64
}

// Listener receives normalized adapter events. It is implemented by the host SDK.
type Listener interface {
	// OnLoaded reports a successful load. View is nil for fullscreen formats.
	OnLoaded(view View)
	// AdRequestFailed reports a failed load; isNoFill marks inventory absence.
	AdRequestFailed(message string, isNoFill bool)
	OnShown()
	OnFailedToShow(message string)
	OnAdClicked()
	OnAdClosed()
	// OnAdFullScreen reports a banner expanding to full screen.
	OnAdFullScreen()
	OnReward(reward Reward)
}

// BaseListener implements Listener with no-ops. Embed it to override only
// the callbacks of interest.
type BaseListener struct{}

func (BaseListener) OnLoaded(View)                {}
func (BaseListener) AdRequestFailed(string, bool) {}
func (BaseListener) OnShown()                     {}
func (BaseListener) OnFailedToShow(string)        {}
func (BaseListener) OnAdClicked()                 {}
func (BaseListener) OnAdClosed()                  {}
func (BaseListener) OnAdFullScreen()              {}
func (BaseListener) OnReward(Reward)              {}

// EventKind tags an Event
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventLoadFailed
	EventShown
	EventShowFailed
	EventClicked
	EventClosed
	EventFullScreen
	EventReward
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load_failed"
	case EventShown:
		return "shown"
	case EventShowFailed:
		return "show_failed"
	case EventClicked:
		return "clicked"
	case EventClosed:
		return "closed"
	case EventFullScreen:
		return "fullscreen"
	case EventReward:
		return "reward"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is the network-independent form of a native SDK callback. Network
// adapters translate their SDK callbacks into Events; Deliver hands them to
// the host listener.
type Event struct {
	Kind    EventKind
	View    View
	Message string
	NoFill  bool
	Reward  Reward
}

// Loaded builds a load success event
func Loaded(view View) Event { return Event{Kind: EventLoaded, View: view} }

// LoadFailed builds a load failure event
func LoadFailed(message string, noFill bool) Event {
	return Event{Kind: EventLoadFailed, Message: message, NoFill: noFill}
}

// Shown builds a display event
func Shown() Event { return Event{Kind: EventShown} }

// ShowFailed builds a display failure event
func ShowFailed(message string) Event { return Event{Kind: EventShowFailed, Message: message} }

// Clicked builds a click event
func Clicked() Event { return Event{Kind: EventClicked} }

// Closed builds a close event
func Closed() Event { return Event{Kind: EventClosed} }

// FullScreen builds a banner expansion event
func FullScreen() Event { return Event{Kind: EventFullScreen} }

// Rewarded builds a reward event
func Rewarded(label string, amount float64) Event {
	return Event{Kind: EventReward, Reward: Reward{Label: label, Amount: amount}}
}

// Deliver invokes the listener callback matching the event kind.
func (e Event) Deliver(l Listener) {
	if l == nil {
		return
	}
	switch e.Kind {
	case EventLoaded:
		l.OnLoaded(e.View)
	case EventLoadFailed:
		l.AdRequestFailed(e.Message, e.NoFill)
	case EventShown:
		l.OnShown()
	case EventShowFailed:
		l.OnFailedToShow(e.Message)
	case EventClicked:
		l.OnAdClicked()
	case EventClosed:
		l.OnAdClosed()
	case EventFullScreen:
		l.OnAdFullScreen()
	case EventReward:
		l.OnReward(e.Reward)
	}
}
