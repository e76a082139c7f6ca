// Package host resolves host placements to mediation adapters and drives
// them on behalf of the host ad SDK.
package host

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/placement"
	"github.com/thenexusengine/tne_mediation/internal/registry"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// ErrNotShowable is returned when Show is called on a banner slot
var ErrNotShowable = errors.New("banner placements are displayed through their view")

// Resolver finds the placement behind a host placement id
type Resolver interface {
	Get(id string) (*placement.Placement, error)
}

// Option configures a Host
type Option func(*Host)

// WithRecorder instruments every adapter listener
func WithRecorder(r Recorder) Option {
	return func(h *Host) { h.recorder = r }
}

// WithConsentStore records consent signals of requests subject to GDPR
func WithConsentStore(store consent.Store) Option {
	return func(h *Host) { h.consent = store }
}

// Host owns one adapter per placement. Loading a placement again reuses its
// adapter, which supersedes the previous ad instance.
type Host struct {
	resolver Resolver
	registry *registry.Registry
	recorder Recorder
	consent  consent.Store

	mu    sync.Mutex
	slots map[string]*Slot
}

// New creates a host. A nil registry means registry.Default.
func New(resolver Resolver, reg *registry.Registry, opts ...Option) *Host {
	if reg == nil {
		reg = registry.Default
	}
	h := &Host{
		resolver: resolver,
		registry: reg,
		slots:    make(map[string]*Slot),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load resolves placementID and requests an ad for it. Events reach listener.
func (h *Host) Load(ctx mediation.Context, placementID string, params mediation.ClientParams, listener mediation.Listener) (*Slot, error) {
	p, err := h.resolver.Get(placementID)
	if err != nil {
		return nil, err
	}

	slot, err := h.slot(p)
	if err != nil {
		return nil, err
	}

	log := logger.Placement(placementID)
	log.Debug().
		Str("network", p.Network).
		Str("format", string(p.Format)).
		Msg("requesting ad")

	if h.recorder != nil {
		h.recorder.RecordAdRequest(p.Network, string(p.Format))
		if params.String(mediation.GDPRAppliesKey) == "true" {
			h.recorder.RecordConsentSignal(p.Network, !consent.NonPersonalized(h.consent, "true"))
		}
		listener = newInstrumentedListener(listener, h.recorder, p.Network, p.Format)
	}

	switch p.Format {
	case mediation.FormatBanner:
		slot.banner.RequestBannerAd(ctx, p.Config, params, listener)
	case mediation.FormatInterstitial:
		slot.interstitial.RequestInterstitialAd(ctx, p.Config, params, listener)
	case mediation.FormatRewardedVideo:
		slot.rewarded.RequestRewardedVideoAd(ctx, p.Config, params, listener)
	}
	return slot, nil
}

func (h *Host) slot(p *placement.Placement) (*Slot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.slots[p.ID]; ok {
		if cur := s.Placement(); cur.Network == p.Network && cur.Format == p.Format {
			s.placement.Store(p)
			return s, nil
		}
		// placement moved to another network or format
		s.adapter().Destroy()
		delete(h.slots, p.ID)
	}

	s := &Slot{host: h}
	s.placement.Store(p)
	var err error
	switch p.Format {
	case mediation.FormatBanner:
		s.banner, err = h.registry.NewBanner(p.Network)
	case mediation.FormatInterstitial:
		s.interstitial, err = h.registry.NewInterstitial(p.Network)
	case mediation.FormatRewardedVideo:
		s.rewarded, err = h.registry.NewRewardedVideo(p.Network)
	default:
		err = fmt.Errorf("%w: %s %s", registry.ErrUnsupportedFormat, p.Network, p.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("placement %s: %w", p.ID, err)
	}
	h.slots[p.ID] = s
	return s, nil
}

// Slot returns the slot of a previously loaded placement
func (h *Host) Slot(placementID string) (*Slot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.slots[placementID]
	return s, ok
}

// Close destroys every adapter
func (h *Host) Close() {
	h.mu.Lock()
	slots := h.slots
	h.slots = make(map[string]*Slot)
	h.mu.Unlock()

	for _, s := range slots {
		s.adapter().Destroy()
	}
}

// Slot is the adapter serving one placement
type Slot struct {
	// replaced when the placement is reloaded with the same network and format
	placement atomic.Pointer[placement.Placement]
	host      *Host

	banner       mediation.BannerAdapter
	interstitial mediation.InterstitialAdapter
	rewarded     mediation.RewardedVideoAdapter
}

// Placement returns the placement served by the slot
func (s *Slot) Placement() *placement.Placement { return s.placement.Load() }

func (s *Slot) adapter() mediation.Adapter {
	switch {
	case s.banner != nil:
		return s.banner
	case s.interstitial != nil:
		return s.interstitial
	}
	return s.rewarded
}

// Show displays a loaded fullscreen ad
func (s *Slot) Show() error {
	var err error
	switch {
	case s.interstitial != nil:
		err = s.interstitial.ShowInterstitial()
	case s.rewarded != nil:
		err = s.rewarded.ShowRewardedVideoAd()
	default:
		return ErrNotShowable
	}
	if err != nil {
		code := "UNKNOWN"
		var adapterErr *mediation.AdapterError
		if errors.As(err, &adapterErr) {
			code = string(adapterErr.Code)
		}
		p := s.Placement()
		logger.Placement(p.ID).Warn().Err(err).Str("code", code).Msg("show rejected")
		if s.host.recorder != nil {
			s.host.recorder.RecordShowError(p.Network, string(p.Format), code)
		}
	}
	return err
}

// Destroy releases the native resources of the slot's current ad
func (s *Slot) Destroy() {
	s.adapter().Destroy()
}
