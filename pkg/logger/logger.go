// Package logger provides structured logging for the mediation layer
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "mediation"

type contextKey string

const (
	// RequestIDKey is the context key for the request ID
	RequestIDKey contextKey = "request_id"
	// PlacementIDKey is the context key for the placement ID
	PlacementIDKey contextKey = "placement_id"
)

// Log is the global logger instance
var Log zerolog.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", ServiceName).Logger()

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	TimeFormat string
	// Output defaults to stdout
	Output io.Writer
}

// DefaultConfig returns the default configuration, honouring LOG_LEVEL and LOG_FORMAT
func DefaultConfig() Config {
	return Config{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "json"),
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global logger
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var base zerolog.Logger
	if cfg.Format == "console" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat, NoColor: true})
	} else {
		base = zerolog.New(out)
	}

	Log = base.Level(level).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// WithRequestID returns a context carrying the request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithPlacementID returns a context carrying the placement ID
func WithPlacementID(ctx context.Context, placementID string) context.Context {
	return context.WithValue(ctx, PlacementIDKey, placementID)
}

// FromContext returns a logger enriched with the IDs found in ctx
func FromContext(ctx context.Context) *zerolog.Logger {
	lc := Log.With()
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		lc = lc.Str("request_id", requestID)
	}
	if placementID, ok := ctx.Value(PlacementIDKey).(string); ok && placementID != "" {
		lc = lc.Str("placement_id", placementID)
	}
	l := lc.Logger()
	return &l
}

// Network returns a logger for a mediated ad network
func Network(name string) *zerolog.Logger {
	l := Log.With().Str("network", name).Logger()
	return &l
}

// Placement returns a logger for a placement
func Placement(placementID string) *zerolog.Logger {
	l := Log.With().Str("placement_id", placementID).Logger()
	return &l
}

// HTTP returns a logger for the HTTP layer
func HTTP() *zerolog.Logger {
	l := Log.With().Str("component", "http").Logger()
	return &l
}

// Catalog returns a logger for the placement catalog
func Catalog() *zerolog.Logger {
	l := Log.With().Str("component", "catalog").Logger()
	return &l
}

// RequestLogger carries request-scoped fields and timing
type RequestLogger struct {
	logger zerolog.Logger
	start  time.Time
}

// NewRequestLogger creates a logger bound to a request ID
func NewRequestLogger(requestID string) *RequestLogger {
	return &RequestLogger{
		logger: Log.With().Str("request_id", requestID).Logger(),
		start:  time.Now(),
	}
}

// WithField returns a copy of the request logger with an extra field
func (rl *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	return &RequestLogger{
		logger: rl.logger.With().Interface(key, value).Logger(),
		start:  rl.start,
	}
}

// Info logs at info level
func (rl *RequestLogger) Info(msg string) {
	rl.logger.Info().Msg(msg)
}

// Error logs at error level
func (rl *RequestLogger) Error(msg string, err error) {
	rl.logger.Error().Err(err).Msg(msg)
}

// Duration returns the time elapsed since the logger was created
func (rl *RequestLogger) Duration() time.Duration {
	return time.Since(rl.start)
}

// LogComplete logs request completion with status and duration
func (rl *RequestLogger) LogComplete(status int) {
	rl.logger.Info().
		Int("status", status).
		Float64("duration_ms", float64(rl.Duration().Microseconds())/1000.0).
		Msg("request completed")
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
