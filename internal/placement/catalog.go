package placement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// ErrCatalogStopped is returned by Start once the catalog was stopped
var ErrCatalogStopped = errors.New("placement catalog stopped")

// Recorder receives catalog metrics
type Recorder interface {
	RecordCatalogRefresh(source string, placements int, err error)
	RecordCatalogLookup(found bool)
}

// Subscriber delivers change notifications
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

// Stats is a snapshot of catalog health
type Stats struct {
	Source             string        `json:"source"`
	Placements         int           `json:"placements"`
	RefreshCount       int64         `json:"refresh_count"`
	RefreshErrors      int64         `json:"refresh_errors"`
	LastRefreshTime    time.Time     `json:"last_refresh_time"`
	LastRefreshLatency time.Duration `json:"last_refresh_latency"`
	Skipped            int           `json:"skipped"`
}

// Option configures a Catalog
type Option func(*Catalog)

// WithRecorder reports refreshes and lookups to r
func WithRecorder(r Recorder) Option {
	return func(c *Catalog) { c.recorder = r }
}

// WithSupport drops placements whose network cannot serve their format
func WithSupport(supports func(network string, format mediation.Format) bool) Option {
	return func(c *Catalog) { c.supports = supports }
}

// Catalog is an in-memory snapshot of the placements of one source,
// refreshed periodically.
type Catalog struct {
	source        Source
	refreshPeriod time.Duration
	recorder      Recorder
	supports      func(string, mediation.Format) bool
	stopChan      chan struct{}
	stopOnce      sync.Once

	mu         sync.RWMutex
	placements map[string]*Placement
	stats      Stats
}

// NewCatalog creates an empty catalog over source
func NewCatalog(source Source, refreshPeriod time.Duration, opts ...Option) *Catalog {
	if refreshPeriod <= 0 {
		refreshPeriod = config.CatalogRefreshPeriod
	}
	c := &Catalog{
		source:        source,
		refreshPeriod: refreshPeriod,
		stopChan:      make(chan struct{}),
		placements:    make(map[string]*Placement),
		stats:         Stats{Source: source.Name()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the catalog once and keeps refreshing it in the background
func (c *Catalog) Start(ctx context.Context) error {
	select {
	case <-c.stopChan:
		return ErrCatalogStopped
	default:
	}
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	go c.refreshLoop(ctx)
	return nil
}

// Stop ends the background refresh. Safe to call repeatedly.
func (c *Catalog) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Catalog) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.refreshWithTimeout(ctx)
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Catalog) refreshWithTimeout(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, config.CatalogRefreshTimeout)
	defer cancel()
	if err := c.Refresh(refreshCtx); err != nil {
		logger.Catalog().Warn().Err(err).Msg("Failed to refresh placements, keeping previous snapshot")
	}
}

// Watch refreshes the catalog whenever a message arrives on channel, until
// ctx is done or the catalog is stopped.
func (c *Catalog) Watch(ctx context.Context, sub Subscriber, channel string) error {
	msgs, err := sub.Subscribe(ctx, channel)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				logger.Catalog().Debug().Str("message", msg).Msg("placement change notified")
				c.refreshWithTimeout(ctx)
			case <-c.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Refresh replaces the snapshot with the source content. On error the
// previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	start := time.Now()
	name := c.source.Name()

	loaded, err := c.source.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.stats.RefreshCount++
		c.stats.RefreshErrors++
		c.mu.Unlock()
		if c.recorder != nil {
			c.recorder.RecordCatalogRefresh(name, 0, err)
		}
		return fmt.Errorf("failed to load placements from %s: %w", name, err)
	}

	next := make(map[string]*Placement, len(loaded))
	skipped := 0
	for id, p := range loaded {
		if err := p.Validate(); err != nil {
			logger.Catalog().Warn().Err(err).Str("placement_id", id).Msg("Skipping invalid placement")
			skipped++
			continue
		}
		if !p.Enabled {
			continue
		}
		if c.supports != nil && !c.supports(p.Network, p.Format) {
			logger.Catalog().Warn().
				Str("placement_id", id).
				Str("network", p.Network).
				Str("format", string(p.Format)).
				Msg("Skipping placement of unsupported network format")
			skipped++
			continue
		}
		next[id] = p
	}

	c.mu.Lock()
	c.placements = next
	c.stats.RefreshCount++
	c.stats.Placements = len(next)
	c.stats.Skipped = skipped
	c.stats.LastRefreshTime = time.Now()
	c.stats.LastRefreshLatency = time.Since(start)
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.RecordCatalogRefresh(name, len(next), nil)
	}
	logger.Catalog().Debug().Int("placements", len(next)).Int("skipped", skipped).Msg("placements refreshed")
	return nil
}

// Get returns the placement with id
func (c *Catalog) Get(id string) (*Placement, error) {
	c.mu.RLock()
	p, ok := c.placements[id]
	c.mu.RUnlock()

	if c.recorder != nil {
		c.recorder.RecordCatalogLookup(ok)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// List returns all placements ordered by id
func (c *Catalog) List() []*Placement {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Placement, 0, len(c.placements))
	for _, p := range c.placements {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of placements
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.placements)
}

// Stats returns a copy of the catalog health counters
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Ready reports whether at least one refresh succeeded
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.stats.LastRefreshTime.IsZero()
}

// StaticSource serves a fixed set of placements
type StaticSource []*Placement

// Name implements Source
func (StaticSource) Name() string { return "static" }

// Load implements Source
func (s StaticSource) Load(context.Context) (map[string]*Placement, error) {
	result := make(map[string]*Placement, len(s))
	for _, p := range s {
		result[p.ID] = p
	}
	return result, nil
}
