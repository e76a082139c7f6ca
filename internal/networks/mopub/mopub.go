// Package mopub implements the MoPub mediation adapters. The MoPub SDK
// initializes asynchronously: requests made before it is ready are parked
// and replayed once initialization finishes.
package mopub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/mediation/session"
	"github.com/thenexusengine/tne_mediation/internal/registry"
)

const networkName = "mopub"

// ErrSDKNotInstalled is returned by registry factories before Install
var ErrSDKNotInstalled = errors.New("mopub SDK not installed")

// NewSession creates the initialization session of sdk
func NewSession(sdk SDK) *session.Session {
	return session.New(session.Config{
		Network: networkName,
		Async:   true,
		Bootstrap: func(ctx mediation.Context, adUnitID string, done func(error)) {
			sdk.InitializeSDK(ctx, adUnitID, func() { done(nil) })
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
	session         *session.Session
	thread          mediation.MainThread
	locationAllowed bool
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

// WithLocationDetection lets MoPub use the device location
func WithLocationDetection(allowed bool) Option {
	return func(o *options) { o.locationAllowed = allowed }
}

type base struct {
	sdk             SDK
	session         *session.Session
	thread          mediation.MainThread
	locationAllowed bool
	tracker         *mediation.Tracker
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
		sdk:             sdk,
		session:         o.session,
		thread:          o.thread,
		locationAllowed: o.locationAllowed,
		tracker:         mediation.NewTracker(networkName, format),
	}
}

// ready makes sure the SDK is initialized. When it is not, the request is
// parked and retry runs once initialization finishes, unless inst was
// superseded in the meantime.
func (b *base) ready(ctx mediation.Context, inst *mediation.Instance, adUnitID string, retry func()) bool {
	_, ok := b.session.EnsureInitialized(ctx, adUnitID, session.Deferred{
		Retry: func() {
			if !inst.Live() {
				inst.Logger().Debug().Msg("parked request superseded, not retrying")
				return
			}
			retry()
		},
		Fail: func(err error) {
			inst.Emit(mediation.LoadFailed(mediation.NewInitError(networkName, b.tracker.Format(), err).Error(), false))
		},
	})
	if !ok {
		inst.Logger().Debug().Msg("MoPub SDK not initialized yet, request parked")
	}
	return ok
}

func (b *base) consentGate() *consent.Gate {
	return consent.NewGate(networkName, b.sdk.PersonalInformationManager())
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
