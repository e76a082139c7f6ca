package main

import (
	"flag"
	"os"
	"time"

	"github.com/thenexusengine/tne_mediation/internal/config"
)

// ServerConfig holds all server configuration
type ServerConfig struct {
	Port string

	// Placement catalog
	CatalogRefresh time.Duration
	// CatalogWatch refreshes on Redis change notifications
	CatalogWatch bool

	DatabaseConfig *DatabaseConfig

	RedisURL string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ParseConfig parses configuration from flags and environment variables
func ParseConfig() *ServerConfig {
	port := flag.String("port", getEnvOrDefault("MEDIATION_PORT", "8000"), "Server port")
	refresh := flag.Duration("catalog-refresh", getEnvDurationOrDefault("CATALOG_REFRESH", config.CatalogRefreshPeriod), "Placement catalog refresh period")
	watch := flag.Bool("catalog-watch", getEnvBoolOrDefault("CATALOG_WATCH", true), "Refresh placements on Redis notifications")
	flag.Parse()

	cfg := &ServerConfig{
		Port:           *port,
		CatalogRefresh: *refresh,
		CatalogWatch:   *watch,
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.DatabaseConfig = &DatabaseConfig{
			Host:     dbHost,
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "mediation"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "mediation"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		}
	}

	return cfg
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the environment variable as bool or a default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDurationOrDefault parses the environment variable as a duration,
// falling back to the default when unset or malformed
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
