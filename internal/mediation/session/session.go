// Package session tracks one-time initialization of a network SDK.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// State is the initialization state of a network SDK
type State int

const (
	NotInitialized State = iota
	// Initialized is the primary serving canal
	Initialized
	// InitializedAlt is the alternate serving canal selected by a sentinel key
	InitializedAlt
)

func (s State) String() string {
	switch s {
	case NotInitialized:
		return "not_initialized"
	case Initialized:
		return "initialized"
	case InitializedAlt:
		return "initialized_alt"
	}
	return "unknown"
}

// Bootstrap starts the native SDK. It must call done exactly once, possibly
// on another goroutine, when the SDK finished initializing.
type Bootstrap func(ctx mediation.Context, key string, done func(err error))

// Config describes how a network initializes
type Config struct {
	Network string

	// Canal maps a key to the initialized state it selects. Nil always
	// selects Initialized.
	Canal func(key string) State

	// Bootstrap starts the native SDK. Nil means no bootstrap is needed.
	Bootstrap Bootstrap

	// NeedsBootstrap reports whether a canal is served by the bootstrapped
	// SDK. Nil means every canal is.
	NeedsBootstrap func(State) bool

	// Async makes requests wait for the bootstrap completion. Parked requests
	// are retried once it fires.
	Async bool

	// PerCall runs Bootstrap on every request, since the key may change
	// between requests.
	PerCall bool
}

// Deferred is how a request parked behind an asynchronous bootstrap resumes.
type Deferred struct {
	// Retry re-issues the parked request with its full argument set.
	Retry func()
	// Fail reports a bootstrap failure to the parked request.
	Fail func(err error)
}

// Session is the process-wide initialization state of one network SDK.
type Session struct {
	cfg Config
	log zerolog.Logger

	mu           sync.Mutex
	state        State
	bootstrapped bool
	starting     bool
	parked       []Deferred
	bootstraps   int
}

// New creates a session in the NotInitialized state
func New(cfg Config) *Session {
	return &Session{
		cfg:   cfg,
		log:   logger.Network(cfg.Network).With().Str("component", "session").Logger(),
		state: NotInitialized,
	}
}

// State returns the last recorded state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bootstraps returns how many times the native bootstrap was started
func (s *Session) Bootstraps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstraps
}

func (s *Session) canal(key string) State {
	if s.cfg.Canal == nil {
		return Initialized
	}
	return s.cfg.Canal(key)
}

func (s *Session) needsBootstrap(canal State) bool {
	if s.cfg.Bootstrap == nil {
		return false
	}
	if s.cfg.NeedsBootstrap == nil {
		return true
	}
	return s.cfg.NeedsBootstrap(canal)
}

// EnsureInitialized makes sure the SDK serving key is initialized. When it
// returns true the caller proceeds immediately with the returned state. When
// it returns false the request was parked: d.Retry runs exactly once after
// the asynchronous bootstrap completes, or d.Fail if it failed.
func (s *Session) EnsureInitialized(ctx mediation.Context, key string, d Deferred) (State, bool) {
	canal := s.canal(key)

	if s.cfg.PerCall {
		if s.needsBootstrap(canal) {
			s.mu.Lock()
			s.bootstraps++
			s.mu.Unlock()
			s.cfg.Bootstrap(ctx, key, s.logDone)
		}
		s.setState(canal)
		return canal, true
	}

	s.mu.Lock()
	if !s.needsBootstrap(canal) || s.bootstrapped {
		s.state = canal
		s.mu.Unlock()
		return canal, true
	}

	if !s.cfg.Async {
		s.bootstrapped = true
		s.bootstraps++
		s.state = canal
		s.mu.Unlock()
		s.log.Info().Str("state", canal.String()).Msg("starting SDK")
		s.cfg.Bootstrap(ctx, key, s.logDone)
		return canal, true
	}

	s.parked = append(s.parked, d)
	if s.starting {
		s.mu.Unlock()
		s.log.Debug().Msg("SDK initialization in progress, request parked")
		return NotInitialized, false
	}
	s.starting = true
	s.bootstraps++
	s.mu.Unlock()

	s.log.Info().Msg("starting SDK, request parked until initialization completes")
	s.cfg.Bootstrap(ctx, key, func(err error) { s.complete(canal, err) })
	return NotInitialized, false
}

func (s *Session) complete(canal State, err error) {
	s.mu.Lock()
	parked := s.parked
	s.parked = nil
	s.starting = false
	if err == nil {
		s.bootstrapped = true
		s.state = canal
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Int("parked", len(parked)).Msg("SDK initialization failed")
		for _, d := range parked {
			if d.Fail != nil {
				d.Fail(err)
			}
		}
		return
	}

	s.log.Info().Int("parked", len(parked)).Msg("SDK initialization finished")
	for _, d := range parked {
		if d.Retry != nil {
			d.Retry()
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) logDone(err error) {
	if err != nil {
		s.log.Warn().Err(err).Msg("SDK initialization reported an error")
		return
	}
	s.log.Debug().Msg("SDK initialization complete")
}
