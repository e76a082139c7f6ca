// Package consent drives network-owned GDPR consent dialogs and validates
// host-held TCF v2 consent before it is forwarded to a network SDK.
package consent

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// Prompter is a network SDK's own consent dialog.
type Prompter interface {
	ShouldShowConsentDialog() bool
	// LoadConsentDialog preloads the dialog and calls exactly one of the
	// callbacks, possibly on another goroutine.
	LoadConsentDialog(onLoaded func(), onFailed func(err error))
	// ShowConsentDialog displays a loaded dialog. It returns false when the
	// dialog was not ready.
	ShowConsentDialog() bool
}

// Gate decides when a network's consent dialog is displayed. Banners prompt
// as soon as the dialog is loaded. Fullscreen formats Defer the prompt and
// drain it from OnShown so the dialog never covers the ad it belongs to.
type Gate struct {
	prompter Prompter
	log      zerolog.Logger

	mu      sync.Mutex
	pending bool
	loaded  bool
	shown   bool
}

// NewGate creates a gate over a network's consent dialog. A nil prompter,
// including a typed nil from an SDK that is not initialized yet, never prompts.
func NewGate(network string, prompter Prompter) *Gate {
	if isNil(prompter) {
		prompter = nil
	}
	return &Gate{
		prompter: prompter,
		log:      logger.Network(network).With().Str("component", "consent").Logger(),
	}
}

// ShouldPrompt reports whether the network wants to show its consent dialog
func (g *Gate) ShouldPrompt() bool {
	return g.prompter != nil && g.prompter.ShouldShowConsentDialog()
}

// Prompt loads the dialog when it is needed and runs onReady once loaded.
// A nil onReady shows the dialog right away. Load failures are logged only.
func (g *Gate) Prompt(onReady func()) {
	if !g.ShouldPrompt() {
		return
	}
	if onReady == nil {
		onReady = g.Show
	}
	g.prompter.LoadConsentDialog(onReady, func(err error) {
		g.log.Warn().Err(err).Msg("consent dialog failed to load")
	})
}

// Show displays a loaded dialog
func (g *Gate) Show() {
	if g.prompter == nil {
		return
	}
	if !g.prompter.ShowConsentDialog() {
		g.log.Warn().Msg("consent dialog was not ready to show")
		return
	}
	g.log.Debug().Msg("consent dialog shown")
}

// Defer arms a pending prompt and preloads the dialog. The dialog is shown
// by the first OnShown call after both the load and the ad display happened.
func (g *Gate) Defer() {
	if !g.ShouldPrompt() {
		return
	}
	g.mu.Lock()
	g.pending = true
	g.loaded = false
	g.shown = false
	g.mu.Unlock()

	g.prompter.LoadConsentDialog(func() {
		g.mu.Lock()
		g.loaded = true
		show := g.pending && g.shown
		if show {
			g.pending = false
		}
		g.mu.Unlock()
		if show {
			g.Show()
		}
	}, func(err error) {
		g.mu.Lock()
		g.pending = false
		g.mu.Unlock()
		g.log.Warn().Err(err).Msg("deferred consent dialog failed to load")
	})
}

// Pending reports whether a deferred prompt is armed
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// OnShown drains a deferred prompt. If the dialog is still loading it is
// shown as soon as the load completes.
func (g *Gate) OnShown() {
	g.mu.Lock()
	if !g.pending {
		g.mu.Unlock()
		return
	}
	g.shown = true
	show := g.loaded
	if show {
		g.pending = false
	}
	g.mu.Unlock()
	if show {
		g.Show()
	}
}

func isNil(p Prompter) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
