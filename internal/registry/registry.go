// Package registry maps network names to adapter factories. Network packages
// register themselves from init.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

var (
	// ErrUnknownNetwork is returned for a network nobody registered
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrUnsupportedFormat is returned when a network has no adapter for a format
	ErrUnsupportedFormat = errors.New("format not supported by network")
)

// BannerFactory builds a banner adapter whose native UI calls run on thread
type BannerFactory func(thread mediation.MainThread) (mediation.BannerAdapter, error)

// InterstitialFactory builds an interstitial adapter whose show runs on thread
type InterstitialFactory func(thread mediation.MainThread) (mediation.InterstitialAdapter, error)

// RewardedVideoFactory builds a rewarded video adapter whose show runs on thread
type RewardedVideoFactory func(thread mediation.MainThread) (mediation.RewardedVideoAdapter, error)

// Factories holds the adapter factories of one network. Nil entries mark
// unsupported formats.
type Factories struct {
	Banner        BannerFactory
	Interstitial  InterstitialFactory
	RewardedVideo RewardedVideoFactory
}

// Formats lists the formats with a factory
func (f Factories) Formats() []mediation.Format {
	formats := make([]mediation.Format, 0, 3)
	if f.Banner != nil {
		formats = append(formats, mediation.FormatBanner)
	}
	if f.Interstitial != nil {
		formats = append(formats, mediation.FormatInterstitial)
	}
	if f.RewardedVideo != nil {
		formats = append(formats, mediation.FormatRewardedVideo)
	}
	return formats
}

// Registry holds the registered networks
type Registry struct {
	mu       sync.RWMutex
	networks map[string]Factories
	thread   mediation.MainThread
}

// Option configures a Registry
type Option func(*Registry)

// WithMainThread sets the thread handed to every adapter the registry builds.
// Without it adapters share mediation.Main().
func WithMainThread(t mediation.MainThread) Option {
	return func(r *Registry) { r.thread = t }
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{networks: make(map[string]Factories)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetMainThread replaces the thread handed to adapters built from now on
func (r *Registry) SetMainThread(t mediation.MainThread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thread = t
}

// MainThread returns the thread adapters built by r run their UI calls on
func (r *Registry) MainThread() mediation.MainThread {
	r.mu.RLock()
	t := r.thread
	r.mu.RUnlock()
	if t == nil {
		return mediation.Main()
	}
	return t
}

// Default is the registry network packages register into
var Default = New()

// Register adds a network to the default registry
func Register(network string, f Factories) error {
	return Default.Register(network, f)
}

// Register adds a network. Registering a name twice is an error.
func (r *Registry) Register(network string, f Factories) error {
	if network == "" {
		return errors.New("network name is required")
	}
	if len(f.Formats()) == 0 {
		return fmt.Errorf("network %s registers no format", network)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.networks[network]; exists {
		return fmt.Errorf("network %s already registered", network)
	}
	r.networks[network] = f
	return nil
}

func (r *Registry) lookup(network string) (Factories, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.networks[network]
	if !ok {
		return Factories{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return f, nil
}

// NewBanner builds a banner adapter for network
func (r *Registry) NewBanner(network string) (mediation.BannerAdapter, error) {
	f, err := r.lookup(network)
	if err != nil {
		return nil, err
	}
	if f.Banner == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedFormat, network, mediation.FormatBanner)
	}
	return f.Banner(r.MainThread())
}

// NewInterstitial builds an interstitial adapter for network
func (r *Registry) NewInterstitial(network string) (mediation.InterstitialAdapter, error) {
	f, err := r.lookup(network)
	if err != nil {
		return nil, err
	}
	if f.Interstitial == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedFormat, network, mediation.FormatInterstitial)
	}
	return f.Interstitial(r.MainThread())
}

// NewRewardedVideo builds a rewarded video adapter for network
func (r *Registry) NewRewardedVideo(network string) (mediation.RewardedVideoAdapter, error) {
	f, err := r.lookup(network)
	if err != nil {
		return nil, err
	}
	if f.RewardedVideo == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedFormat, network, mediation.FormatRewardedVideo)
	}
	return f.RewardedVideo(r.MainThread())
}

// Supports reports whether network has an adapter for format
func (r *Registry) Supports(network string, format mediation.Format) bool {
	f, err := r.lookup(network)
	if err != nil {
		return false
	}
	for _, got := range f.Formats() {
		if got == format {
			return true
		}
	}
	return false
}

// Networks lists registered network names in sorted order
func (r *Registry) Networks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
