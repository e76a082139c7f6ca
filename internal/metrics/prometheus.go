// Package metrics provides Prometheus metrics for the mediation layer
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	RateLimited      prometheus.Counter

	// Adapter metrics
	AdRequests     *prometheus.CounterVec
	AdLoads        *prometheus.CounterVec
	AdLoadLatency  *prometheus.HistogramVec
	AdNoFills      *prometheus.CounterVec
	AdLoadFailures *prometheus.CounterVec
	AdShows        *prometheus.CounterVec
	AdShowFailures *prometheus.CounterVec
	AdShowErrors   *prometheus.CounterVec
	AdClicks       *prometheus.CounterVec
	AdCloses       *prometheus.CounterVec
	AdRewards      *prometheus.CounterVec
	RewardAmount   *prometheus.CounterVec

	// Privacy metrics
	ConsentSignals *prometheus.CounterVec

	// Catalog metrics
	CatalogPlacements *prometheus.GaugeVec
	CatalogRefreshes  *prometheus.CounterVec
	CatalogLookups    *prometheus.CounterVec
}

// NewMetricsWithRegistry creates all metrics and registers them with reg
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "mediation"
	}

	adapterLabels := []string{"network", "format"}

	m := &Metrics{
		// Request metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejected_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),

		// Adapter metrics
		AdRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_requests_total",
				Help:      "Total number of ad requests made through mediation adapters",
			},
			adapterLabels,
		),
		AdLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_loads_total",
				Help:      "Total number of ads loaded",
			},
			adapterLabels,
		),
		AdLoadLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ad_load_duration_seconds",
				Help:      "Time from ad request to load outcome in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10, 20},
			},
			append(adapterLabels, "outcome"),
		),
		AdNoFills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_no_fills_total",
				Help:      "Total number of ad requests without inventory",
			},
			adapterLabels,
		),
		AdLoadFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_load_failures_total",
				Help:      "Total number of ad requests failed for reasons other than no fill",
			},
			adapterLabels,
		),
		AdShows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_shows_total",
				Help:      "Total number of ads displayed",
			},
			adapterLabels,
		),
		AdShowFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_show_failures_total",
				Help:      "Total number of loaded ads that failed to display",
			},
			adapterLabels,
		),
		AdShowErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_show_errors_total",
				Help:      "Total number of show calls rejected before reaching the network",
			},
			append(adapterLabels, "code"),
		),
		AdClicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_clicks_total",
				Help:      "Total number of ad clicks",
			},
			adapterLabels,
		),
		AdCloses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_closes_total",
				Help:      "Total number of ads closed",
			},
			adapterLabels,
		),
		AdRewards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_rewards_total",
				Help:      "Total number of rewards granted",
			},
			[]string{"network", "label"},
		),
		RewardAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_reward_amount_total",
				Help:      "Sum of granted reward amounts",
			},
			[]string{"network", "label"},
		),

		// Privacy metrics
		ConsentSignals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consent_signals_total",
				Help:      "Consent signals seen on ad requests",
			},
			[]string{"network", "consent"},
		),

		// Catalog metrics
		CatalogPlacements: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_placements",
				Help:      "Number of placements currently loaded in the catalog",
			},
			[]string{"source"},
		),
		CatalogRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_refreshes_total",
				Help:      "Total number of placement catalog refreshes",
			},
			[]string{"source", "status"},
		),
		CatalogLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_lookups_total",
				Help:      "Total number of placement lookups",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.RateLimited,
		m.AdRequests,
		m.AdLoads,
		m.AdLoadLatency,
		m.AdNoFills,
		m.AdLoadFailures,
		m.AdShows,
		m.AdShowFailures,
		m.AdShowErrors,
		m.AdClicks,
		m.AdCloses,
		m.AdRewards,
		m.RewardAmount,
		m.ConsentSignals,
		m.CatalogPlacements,
		m.CatalogRefreshes,
		m.CatalogLookups,
	)

	return m
}

// HandlerFor returns an HTTP handler serving the metrics of gatherer
func HandlerFor(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware returns HTTP middleware that records request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.statusCode)

		// the mux records the matched pattern, which keeps placement ids out of labels
		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}

		m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
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

// IncRateLimitRejected records a request rejected by the rate limiter
func (m *Metrics) IncRateLimitRejected() {
	m.RateLimited.Inc()
}

// RecordAdRequest records an ad request sent to an adapter
func (m *Metrics) RecordAdRequest(network, format string) {
	m.AdRequests.WithLabelValues(network, format).Inc()
}

// RecordAdLoad records a load outcome and the time it took
func (m *Metrics) RecordAdLoad(network, format string, latency time.Duration, loaded, noFill bool) {
	outcome := "loaded"
	switch {
	case loaded:
		m.AdLoads.WithLabelValues(network, format).Inc()
	case noFill:
		outcome = "no_fill"
		m.AdNoFills.WithLabelValues(network, format).Inc()
	default:
		outcome = "error"
		m.AdLoadFailures.WithLabelValues(network, format).Inc()
	}
	m.AdLoadLatency.WithLabelValues(network, format, outcome).Observe(latency.Seconds())
}

// RecordAdShow records a display outcome
func (m *Metrics) RecordAdShow(network, format string, shown bool) {
	if shown {
		m.AdShows.WithLabelValues(network, format).Inc()
		return
	}
	m.AdShowFailures.WithLabelValues(network, format).Inc()
}

// RecordShowError records a show call rejected by the adapter
func (m *Metrics) RecordShowError(network, format, code string) {
	m.AdShowErrors.WithLabelValues(network, format, code).Inc()
}

// RecordAdClick records a click
func (m *Metrics) RecordAdClick(network, format string) {
	m.AdClicks.WithLabelValues(network, format).Inc()
}

// RecordAdClose records a close
func (m *Metrics) RecordAdClose(network, format string) {
	m.AdCloses.WithLabelValues(network, format).Inc()
}

// RecordReward records a granted reward
func (m *Metrics) RecordReward(network, label string, amount float64) {
	m.AdRewards.WithLabelValues(network, label).Inc()
	if amount > 0 {
		m.RewardAmount.WithLabelValues(network, label).Add(amount)
	}
}

// RecordConsentSignal records the consent state of a request subject to GDPR
func (m *Metrics) RecordConsentSignal(network string, hasConsent bool) {
	consent := "no"
	if hasConsent {
		consent = "yes"
	}
	m.ConsentSignals.WithLabelValues(network, consent).Inc()
}

// RecordCatalogRefresh records a catalog refresh and the resulting size
func (m *Metrics) RecordCatalogRefresh(source string, placements int, err error) {
	if err != nil {
		m.CatalogRefreshes.WithLabelValues(source, "error").Inc()
		return
	}
	m.CatalogRefreshes.WithLabelValues(source, "ok").Inc()
	m.CatalogPlacements.WithLabelValues(source).Set(float64(placements))
}

// RecordCatalogLookup records a placement lookup
func (m *Metrics) RecordCatalogLookup(found bool) {
	status := "hit"
	if !found {
		status = "miss"
	}
	m.CatalogLookups.WithLabelValues(status).Inc()
}
