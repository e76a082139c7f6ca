// Package config provides shared configuration constants for the mediation service
package config

import "time"

// Server timeout defaults
const (
	// ServerReadTimeout is the maximum duration for reading the entire request
	ServerReadTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration before timing out writes of the response
	ServerWriteTimeout = 10 * time.Second

	// ServerIdleTimeout is the maximum time to wait for the next request when keep-alives are enabled
	ServerIdleTimeout = 120 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

// Placement catalog defaults
const (
	// CatalogRefreshPeriod is how often placements are reloaded from their source
	CatalogRefreshPeriod = 30 * time.Second

	// CatalogRefreshTimeout bounds a single reload
	CatalogRefreshTimeout = 5 * time.Second

	// CatalogCacheControlMaxAge is the Cache-Control max-age of placement responses in seconds
	CatalogCacheControlMaxAge = 60
)

// Redis defaults
const (
	// RedisPoolSize is the default connection pool size
	RedisPoolSize = 100

	// RedisPlacementsHash holds placement id -> placement JSON
	RedisPlacementsHash = "tne_mediation:placements"

	// RedisDisabledNetworks is the set of network names switched off at runtime
	RedisDisabledNetworks = "tne_mediation:networks:disabled"

	// RedisPlacementsChannel receives a message whenever placements change
	RedisPlacementsChannel = "tne_mediation:placements:updated"
)

// Database defaults
const (
	// DBMaxOpenConns is the maximum number of open connections
	DBMaxOpenConns = 25

	// DBMaxIdleConns is the maximum number of idle connections
	DBMaxIdleConns = 5

	// DBConnMaxLifetime is how long a connection may be reused
	DBConnMaxLifetime = 10 * time.Minute

	// DBPingTimeout bounds the connection test at startup
	DBPingTimeout = 5 * time.Second
)

// Adapter defaults
const (
	// MainThreadQueueSize is the buffer of the main-thread looper
	MainThreadQueueSize = 64
)
