package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/metrics"
	"github.com/thenexusengine/tne_mediation/internal/middleware"
	_ "github.com/thenexusengine/tne_mediation/internal/networks/google"
	_ "github.com/thenexusengine/tne_mediation/internal/networks/mopub"
	_ "github.com/thenexusengine/tne_mediation/internal/networks/ogury"
	"github.com/thenexusengine/tne_mediation/internal/placement"
	"github.com/thenexusengine/tne_mediation/internal/registry"
	"github.com/thenexusengine/tne_mediation/pkg/breaker"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
	"github.com/thenexusengine/tne_mediation/pkg/redis"
)

// Server serves the placement catalog to host SDKs
type Server struct {
	config      *ServerConfig
	httpServer  *http.Server
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	catalog     *placement.Catalog
	networks    *registry.Registry
	rateLimiter *middleware.RateLimiter
	breaker     *breaker.CircuitBreaker
	db          *sql.DB
	redisClient *redis.Client

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a server and loads the placement catalog. The catalog
// keeps refreshing until ctx is done.
func NewServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	s := &Server{
		config:   cfg,
		networks: registry.Default,
		stop:     make(chan struct{}),
	}

	if err := s.initialize(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) initialize(ctx context.Context) error {
	log := logger.Log

	log.Info().
		Str("port", s.config.Port).
		Dur("catalog_refresh", s.config.CatalogRefresh).
		Strs("networks", s.networks.Networks()).
		Msg("Initializing mediation placement service")

	// a registry per server keeps tests free of duplicate registrations
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = metrics.NewMetricsWithRegistry("mediation", reg)
	s.gatherer = reg

	if err := s.initDatabase(); err != nil {
		log.Warn().Err(err).Msg("Database initialization failed, continuing with reduced functionality")
	}

	if err := s.initRedis(); err != nil {
		log.Warn().Err(err).Msg("Redis initialization failed, continuing with reduced functionality")
	}

	if err := s.initCatalog(ctx); err != nil {
		return err
	}

	s.initHandlers()
	return nil
}

func (s *Server) initDatabase() error {
	log := logger.Log

	if s.config.DatabaseConfig == nil {
		log.Info().Msg("DB_HOST not set, PostgreSQL placement source disabled")
		return nil
	}

	dbCfg := s.config.DatabaseConfig
	db, err := placement.NewDBConnection(
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Name,
		dbCfg.SSLMode,
	)
	if err != nil {
		return err
	}
	s.db = db

	log.Info().Str("host", dbCfg.Host).Str("database", dbCfg.Name).Msg("PostgreSQL connected")
	return nil
}

func (s *Server) initRedis() error {
	log := logger.Log

	if s.config.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, Redis placement source disabled")
		return nil
	}

	client, err := redis.New(s.config.RedisURL)
	if err != nil {
		return err
	}
	s.redisClient = client

	log.Info().Msg("Redis client initialized")
	return nil
}

// placementSource prefers PostgreSQL, then Redis. Without either the
// catalog is empty.
func (s *Server) placementSource() placement.Source {
	switch {
	case s.db != nil:
		return placement.NewPostgresSource(s.db)
	case s.redisClient != nil:
		return placement.NewRedisSource(s.redisClient)
	}
	logger.Log.Warn().Msg("No placement source configured, serving an empty catalog")
	return placement.StaticSource{}
}

func (s *Server) initCatalog(ctx context.Context) error {
	log := logger.Catalog()

	cbCfg := breaker.DefaultConfig()
	cbCfg.OnStateChange = func(from, to string) {
		log.Warn().Str("from", from).Str("to", to).Msg("Placement source circuit breaker state changed")
	}
	s.breaker = breaker.New(cbCfg)

	s.catalog = placement.NewCatalog(
		placement.Guard(s.placementSource(), s.breaker),
		s.config.CatalogRefresh,
		placement.WithRecorder(s.metrics),
		placement.WithSupport(s.networks.Supports),
	)

	if err := s.catalog.Start(ctx); err != nil {
		// the refresh loop is not running; retry in the background so the
		// service becomes ready once the source recovers
		log.Warn().Err(err).Msg("Initial placement load failed")
		s.wg.Add(1)
		go s.retryCatalog(ctx)
	}

	if s.config.CatalogWatch && s.redisClient != nil {
		if err := s.catalog.Watch(ctx, s.redisClient, config.RedisPlacementsChannel); err != nil {
			log.Warn().Err(err).Msg("Failed to watch placement changes")
		}
	}

	log.Info().Int("placements", s.catalog.Count()).Msg("Placement catalog initialized")
	return nil
}

// retryCatalog keeps trying the initial load until it succeeds, ctx is done
// or the server shuts down
func (s *Server) retryCatalog(ctx context.Context) {
	defer s.wg.Done()
	period := s.config.CatalogRefresh
	if period <= 0 {
		period = config.CatalogRefreshPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.catalog.Start(ctx); err == nil {
				logger.Catalog().Info().Int("placements", s.catalog.Count()).Msg("Placement catalog recovered")
				return
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) initHandlers() {
	s.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(), s.metrics)
	limited := func(fn http.HandlerFunc) http.Handler {
		return s.rateLimiter.Middleware(fn)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /v1/placements", limited(s.listPlacements))
	mux.Handle("GET /v1/placements/{id}", limited(s.getPlacement))
	mux.Handle("GET /v1/networks", limited(s.listNetworks))
	mux.Handle("/health", healthHandler())
	mux.Handle("/health/ready", readyHandler(s.redisClient, s.db, s.catalog, s.breaker))
	mux.Handle("/metrics", metrics.HandlerFor(s.gatherer))

	var handler http.Handler = mux
	handler = s.metrics.Middleware(handler)
	handler = loggingMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}
}

// placementResponse is a placement with its decoded configuration
type placementResponse struct {
	*placement.Placement
	Fields fieldsResponse `json:"fields"`
}

type fieldsResponse struct {
	Key      string   `json:"key"`
	AdUnitID string   `json:"ad_unit_id"`
	Tokens   []string `json:"tokens"`
}

func newPlacementResponse(p *placement.Placement) placementResponse {
	f := p.Fields()
	tokens := make([]string, f.Len())
	for i := range tokens {
		tokens[i] = f.String(i)
	}
	return placementResponse{
		Placement: p,
		Fields:    fieldsResponse{Key: f.Key(), AdUnitID: f.AdUnitID(), Tokens: tokens},
	}
}

func (s *Server) getPlacement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := logger.WithPlacementID(r.Context(), id)
	p, err := s.catalog.Get(id)
	if errors.Is(err, placement.ErrNotFound) {
		logger.FromContext(ctx).Debug().Msg("placement not found")
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", config.CatalogCacheControlMaxAge))
	writeJSON(w, http.StatusOK, newPlacementResponse(p))
}

func (s *Server) listPlacements(w http.ResponseWriter, r *http.Request) {
	list := s.catalog.List()
	resp := make([]placementResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, newPlacementResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"placements": resp,
		"count":      len(resp),
	})
}

func (s *Server) listNetworks(w http.ResponseWriter, r *http.Request) {
	networks := make(map[string][]mediation.Format)
	for _, name := range s.networks.Networks() {
		formats := []mediation.Format{}
		for _, f := range []mediation.Format{mediation.FormatBanner, mediation.FormatInterstitial, mediation.FormatRewardedVideo} {
			if s.networks.Supports(name, f) {
				formats = append(formats, f)
			}
		}
		networks[name] = formats
	}
	writeJSON(w, http.StatusOK, networks)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.HTTP().Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logger.Log.Info().Str("addr", s.httpServer.Addr).Msg("Server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown performs graceful shutdown
func (s *Server) Shutdown(ctx context.Context) error {
	log := logger.Log
	log.Info().Msg("Starting graceful shutdown")

	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	if s.catalog != nil {
		s.catalog.Stop()
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing Redis client")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database")
		}
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests with structured logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rl := logger.NewRequestLogger(requestID).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote_addr", r.RemoteAddr)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(logger.WithRequestID(r.Context(), requestID)))

		rl.LogComplete(wrapped.statusCode)
	})
}

// healthHandler returns a simple liveness check
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   "1.0.0",
		})
	})
}

func dependencyCheck(err error) map[string]interface{} {
	if err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}
	return map[string]interface{}{"status": "healthy"}
}

// readyHandler reports ready once the catalog loaded and every configured
// dependency answers
func readyHandler(redisClient *redis.Client, db *sql.DB, catalog *placement.Catalog, cb *breaker.CircuitBreaker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]interface{})
		allHealthy := true

		if redisClient != nil {
			err := redisClient.Ping(ctx)
			checks["redis"] = dependencyCheck(err)
			allHealthy = allHealthy && err == nil
		} else {
			checks["redis"] = map[string]interface{}{"status": "disabled"}
		}

		if db != nil {
			err := db.PingContext(ctx)
			checks["postgres"] = dependencyCheck(err)
			allHealthy = allHealthy && err == nil
		} else {
			checks["postgres"] = map[string]interface{}{"status": "disabled"}
		}

		catalogCheck := map[string]interface{}{"status": "healthy", "stats": catalog.Stats()}
		if !catalog.Ready() {
			catalogCheck["status"] = "unhealthy"
			allHealthy = false
		}
		if cb != nil {
			catalogCheck["circuit_breaker"] = cb.Stats()
		}
		checks["catalog"] = catalogCheck

		status := http.StatusOK
		if !allHealthy {
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]interface{}{
			"ready":     allHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		})
	})
}
