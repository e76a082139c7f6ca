package host

import (
	"time"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

// Recorder receives adapter event metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordAdRequest(network, format string)
	RecordAdLoad(network, format string, latency time.Duration, loaded, noFill bool)
	RecordAdShow(network, format string, shown bool)
	RecordShowError(network, format, code string)
	RecordAdClick(network, format string)
	RecordAdClose(network, format string)
	RecordReward(network, label string, amount float64)
	RecordConsentSignal(network string, hasConsent bool)
}

// instrumentedListener records every event before handing it to the host.
type instrumentedListener struct {
	next     mediation.Listener
	recorder Recorder
	network  string
	format   string
	start    time.Time
}

func newInstrumentedListener(next mediation.Listener, rec Recorder, network string, format mediation.Format) *instrumentedListener {
	if next == nil {
		next = mediation.BaseListener{}
	}
	return &instrumentedListener{
		next:     next,
		recorder: rec,
		network:  network,
		format:   string(format),
		start:    time.Now(),
	}
}

func (l *instrumentedListener) OnLoaded(view mediation.View) {
	l.recorder.RecordAdLoad(l.network, l.format, time.Since(l.start), true, false)
	l.next.OnLoaded(view)
}

func (l *instrumentedListener) AdRequestFailed(message string, isNoFill bool) {
	l.recorder.RecordAdLoad(l.network, l.format, time.Since(l.start), false, isNoFill)
	l.next.AdRequestFailed(message, isNoFill)
}

func (l *instrumentedListener) OnShown() {
	l.recorder.RecordAdShow(l.network, l.format, true)
	l.next.OnShown()
}

func (l *instrumentedListener) OnFailedToShow(message string) {
	l.recorder.RecordAdShow(l.network, l.format, false)
	l.next.OnFailedToShow(message)
}

func (l *instrumentedListener) OnAdClicked() {
	l.recorder.RecordAdClick(l.network, l.format)
	l.next.OnAdClicked()
}

func (l *instrumentedListener) OnAdClosed() {
	l.recorder.RecordAdClose(l.network, l.format)
	l.next.OnAdClosed()
}

func (l *instrumentedListener) OnAdFullScreen() {
	l.next.OnAdFullScreen()
}

func (l *instrumentedListener) OnReward(reward mediation.Reward) {
	l.recorder.RecordReward(l.network, reward.Label, reward.Amount)
	l.next.OnReward(reward)
}
