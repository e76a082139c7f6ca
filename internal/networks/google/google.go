// Package google implements the Google Mobile Ads mediation adapters. Ads are
// requested from AdMob, or from Ad Manager when the configuration key is
// "admanager".
package google

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/mediation/session"
	"github.com/thenexusengine/tne_mediation/internal/registry"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

const networkName = "google"

// AdManagerKey selects the Ad Manager canal
const AdManagerKey = "admanager"

// ErrSDKNotInstalled is returned by registry factories before Install
var ErrSDKNotInstalled = errors.New("google mobile ads SDK not installed")

// NewSession creates the initialization session of sdk. The AdMob SDK is
// initialized once, the first time the AdMob canal is used.
func NewSession(sdk SDK) *session.Session {
	log := logger.Network(networkName)
	return session.New(session.Config{
		Network: networkName,
		Canal: func(key string) session.State {
			if key == AdManagerKey {
				return session.InitializedAlt
			}
			return session.Initialized
		},
		NeedsBootstrap: func(st session.State) bool { return st == session.Initialized },
		Bootstrap: func(ctx mediation.Context, _ string, done func(error)) {
			sdk.Initialize(ctx, func(status string) {
				log.Debug().Str("status", status).Msg("Google mobile ads initialization complete")
				done(nil)
			})
		},
	})
}

var (
	mu        sync.Mutex
	installed SDK
	sessions  = map[SDK]*session.Session{}
)

// Install sets the SDK used by registry-built adapters
func Install(sdk SDK) {
	mu.Lock()
	defer mu.Unlock()
	installed = sdk
}

// DefaultSession returns the process-wide session of sdk
func DefaultSession(sdk SDK) *session.Session {
	mu.Lock()
	defer mu.Unlock()
	s, ok := sessions[sdk]
	if !ok {
		s = NewSession(sdk)
		sessions[sdk] = s
	}
	return s
}

func installedSDK() (SDK, error) {
	mu.Lock()
	defer mu.Unlock()
	if installed == nil {
		return nil, ErrSDKNotInstalled
	}
	return installed, nil
}

type options struct {
	session *session.Session
	thread  mediation.MainThread
	consent consent.Store
}

// Option configures an adapter
type Option func(*options)

// WithSession injects the initialization session
func WithSession(s *session.Session) Option {
	return func(o *options) { o.session = s }
}

// WithMainThread sets where native show calls run. Without it they run on the
// caller's goroutine; registry-built adapters get the registry's thread.
func WithMainThread(t mediation.MainThread) Option {
	return func(o *options) { o.thread = t }
}

// WithConsentStore sets the host consent state used for non-personalized ads
func WithConsentStore(store consent.Store) Option {
	return func(o *options) { o.consent = store }
}

// base is shared by the three format adapters
type base struct {
	sdk     SDK
	session *session.Session
	thread  mediation.MainThread
	consent consent.Store
	tracker *mediation.Tracker
}

func newBase(sdk SDK, format mediation.Format, opts []Option) base {
	o := options{thread: mediation.ImmediateThread{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.session == nil {
		o.session = DefaultSession(sdk)
	}
	return base{
		sdk:     sdk,
		session: o.session,
		thread:  o.thread,
		consent: o.consent,
		tracker: mediation.NewTracker(networkName, format),
	}
}

// adRequest initializes the canal serving key and builds the request for it
func (b *base) adRequest(ctx mediation.Context, key string, params mediation.ClientParams) AdRequest {
	state, _ := b.session.EnsureInitialized(ctx, key, session.Deferred{})
	return AdRequest{
		AdManager:       state == session.InitializedAlt,
		NonPersonalized: consent.NonPersonalized(b.consent, params.String(mediation.GDPRAppliesKey)),
	}
}

// Destroy releases the current ad
func (b *base) Destroy() {
	b.tracker.Reset()
}

func init() {
	err := registry.Register(networkName, registry.Factories{
		Banner: func(thread mediation.MainThread) (mediation.BannerAdapter, error) {
			sdk, err := installedSDK()
			if err != nil {
				return nil, err
			}
			return NewBannerAdapter(sdk, WithMainThread(thread)), nil
		},
		Interstitial: func(thread mediation.MainThread) (mediation.InterstitialAdapter, error) {
			sdk, err := installedSDK()
			if err != nil {
				return nil, err
			}
			return NewInterstitialAdapter(sdk, WithMainThread(thread)), nil
		},
		RewardedVideo: func(thread mediation.MainThread) (mediation.RewardedVideoAdapter, error) {
			sdk, err := installedSDK()
			if err != nil {
				return nil, err
			}
			return NewRewardedVideoAdapter(sdk, WithMainThread(thread)), nil
		},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register %s adapters: %v", networkName, err))
	}
}
