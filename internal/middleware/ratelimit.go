// Package middleware provides HTTP middleware for the placement service
package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AppIDHeader identifies the host application polling placements
const AppIDHeader = "X-App-ID"

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	BurstSize         int
	// How often idle clients are forgotten
	CleanupInterval time.Duration
	TrustedProxies  []*net.IPNet
}

// DefaultRateLimitConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_RPS,
// RATE_LIMIT_BURST and TRUSTED_PROXIES
func DefaultRateLimitConfig() *RateLimitConfig {
	rps, err := strconv.Atoi(os.Getenv("RATE_LIMIT_RPS"))
	if err != nil || rps <= 0 {
		rps = 100
	}

	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		burst = rps * 2
	}

	return &RateLimitConfig{
		Enabled:           os.Getenv("RATE_LIMIT_ENABLED") != "false",
		RequestsPerSecond: rps,
		BurstSize:         burst,
		CleanupInterval:   time.Minute,
		TrustedProxies:    ParseCIDRs(os.Getenv("TRUSTED_PROXIES")),
	}
}

// ParseCIDRs parses a comma-separated list of CIDR ranges. Bare IPs become
// single-host ranges; malformed entries are skipped.
func ParseCIDRs(list string) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range strings.Split(list, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// RateLimitMetrics records rejected requests
type RateLimitMetrics interface {
	IncRateLimitRejected()
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter is a per-client token bucket. Clients are keyed by app id,
// falling back to their IP address.
type RateLimiter struct {
	config  *RateLimitConfig
	metrics RateLimitMetrics
	stopCh  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	clients map[string]*bucket
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(config *RateLimitConfig, metrics RateLimitMetrics) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:  config,
		metrics: metrics,
		clients: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	if config.CleanupInterval > 0 {
		go rl.cleanup()
	}
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.clients {
				if now.Sub(b.lastCheck) > rl.config.CleanupInterval {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup loop. Safe to call repeatedly.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Middleware rejects clients over their budget with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		clientID := r.Header.Get(AppIDHeader)
		if clientID == "" {
			clientID = rl.clientIP(r)
		}

		limit := strconv.Itoa(rl.config.RequestsPerSecond)
		if !rl.allow(clientID) {
			if rl.metrics != nil {
				rl.metrics.IncRateLimitRejected()
			}
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", limit)
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[clientID]
	if !ok {
		rl.clients[clientID] = &bucket{tokens: float64(rl.config.BurstSize - 1), lastCheck: now}
		return true
	}

	b.tokens += now.Sub(b.lastCheck).Seconds() * float64(rl.config.RequestsPerSecond)
	if b.tokens > float64(rl.config.BurstSize) {
		b.tokens = float64(rl.config.BurstSize)
	}
	b.lastCheck = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientIP returns the rightmost untrusted X-Forwarded-For address when the
// request came through a trusted proxy, the remote address otherwise.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	remoteIP := extractIP(r.RemoteAddr)
	if !rl.trusted(remoteIP) {
		return remoteIP
	}

	ips := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(ips) - 1; i >= 0; i-- {
		ip := strings.TrimSpace(ips[i])
		if ip != "" && !rl.trusted(ip) {
			return ip
		}
	}
	return remoteIP
}

func (rl *RateLimiter) trusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range rl.config.TrustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func extractIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
