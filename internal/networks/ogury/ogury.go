// Package ogury implements the Ogury mediation adapters. The SDK is started on
// every request since the asset key may differ between placements.
package ogury

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
	"github.com/thenexusengine/tne_mediation/internal/mediation/session"
	"github.com/thenexusengine/tne_mediation/internal/registry"
)

const (
	networkName   = "ogury"
	thumbnailName = "ogury_thumbnail"
)

// ErrSDKNotInstalled is returned by registry factories before Install
var ErrSDKNotInstalled = errors.New("ogury SDK not installed")

// NewSession creates the session of sdk. It starts the SDK on every request.
func NewSession(sdk SDK) *session.Session {
	return session.New(session.Config{
		Network: networkName,
		PerCall: true,
		Bootstrap: func(ctx mediation.Context, assetKey string, done func(error)) {
			sdk.Start(ctx, Configuration{AssetKey: assetKey})
			done(nil)
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

// WithSession injects the SDK session
func WithSession(s *session.Session) Option {
	return func(o *options) { o.session = s }
}

// WithMainThread sets where native show calls run. Without it they run on the
// caller's goroutine; registry-built adapters get the registry's thread.
func WithMainThread(t mediation.MainThread) Option {
	return func(o *options) { o.thread = t }
}

// WithConsentStore sets the host consent state whose TCF v2 string is
// forwarded to Ogury
func WithConsentStore(store consent.Store) Option {
	return func(o *options) { o.consent = store }
}

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

// configure forwards the host consent and starts the SDK for the asset key
func (b *base) configure(ctx mediation.Context, inst *mediation.Instance, fields params.Fields) {
	assetKey := fields.Key()
	if b.consent != nil {
		if raw := b.consent.TCFString(); raw != "" {
			tcf, err := consent.ParseTCF(raw)
			if err != nil {
				inst.Logger().Warn().Err(err).Msg("not forwarding invalid TCF consent to Ogury")
			} else {
				inst.Logger().Debug().Uint16("vendor_list", tcf.VendorListVersion).Msg("forwarding TCF consent")
				b.sdk.SetTCFConsent(ctx, assetKey, tcf.Raw)
			}
		}
	}
	b.session.EnsureInitialized(ctx, assetKey, session.Deferred{})
}

// Destroy releases the current ad
func (b *base) Destroy() {
	b.tracker.Reset()
}

// adListener translates the callbacks shared by every Ogury format
type adListener struct {
	inst       *mediation.Instance
	view       mediation.View
	fullscreen bool
}

func (l *adListener) OnAdLoaded() {
	l.inst.Logger().Debug().Msg("onAdLoaded")
	l.inst.Emit(mediation.Loaded(l.view))
}

func (l *adListener) OnAdDisplayed() {
	l.inst.Logger().Debug().Msg("onAdDisplayed")
	if l.fullscreen {
		l.inst.Emit(mediation.Shown())
	}
}

func (l *adListener) OnAdClicked() {
	l.inst.Logger().Debug().Msg("onAdClicked")
	l.inst.Emit(mediation.Clicked())
}

func (l *adListener) OnAdClosed() {
	l.inst.Logger().Debug().Msg("onAdClosed")
	l.inst.Emit(mediation.Closed())
}

// OnAdError is a load failure until the ad loaded, a display failure after
func (l *adListener) OnAdError(err *Error) {
	if err == nil {
		l.inst.Logger().Debug().Msg("onAdError without error")
		l.fail(false, "Ogury failed with unknown error")
		return
	}
	l.inst.Logger().Debug().Int("code", err.Code).Str("error", err.Message).Msg("onAdError")
	noFill, msg := classifier.Classify(err.Code)
	l.fail(noFill, "Ogury failed with error: "+msg)
}

func (l *adListener) fail(noFill bool, msg string) {
	if l.inst.State() == mediation.StateRequested {
		l.inst.Emit(mediation.LoadFailed(msg, noFill))
		return
	}
	if !l.fullscreen {
		l.inst.Logger().Warn().Str("error", msg).Msg("banner error after load")
		return
	}
	l.inst.Emit(mediation.ShowFailed(msg))
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
			return NewOptinVideoAdapter(sdk, WithMainThread(thread)), nil
		},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register %s adapters: %v", networkName, err))
	}

	err = registry.Register(thumbnailName, registry.Factories{
		Banner: func(thread mediation.MainThread) (mediation.BannerAdapter, error) {
			sdk, err := installedSDK()
			if err != nil {
				return nil, err
			}
			return NewThumbnailAdapter(sdk, WithMainThread(thread)), nil
		},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register %s adapter: %v", thumbnailName, err))
	}
}
