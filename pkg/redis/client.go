// Package redis provides a pooled Redis client for the placement catalog
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// Client wraps a Redis connection pool
type Client struct {
	client *redis.Client
}

// ClientConfig holds configuration for the Redis client
type ClientConfig struct {
	PoolSize     int
	MinIdleConns int
	// Maximum connection age before recycling
	MaxConnAge   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Timeout for getting connection from pool
	PoolTimeout time.Duration
}

// DefaultClientConfig returns production configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		PoolSize:     config.RedisPoolSize,
		MinIdleConns: 10,
		MaxConnAge:   30 * time.Minute,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// New creates a new Redis client from a URL with default configuration
func New(redisURL string) (*Client, error) {
	return NewWithConfig(redisURL, DefaultClientConfig())
}

// NewWithConfig creates a new Redis client with custom configuration
func NewWithConfig(redisURL string, cfg *ClientConfig) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}

	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ConnMaxLifetime = cfg.MaxConnAge
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// An unreachable server is not fatal: the catalog keeps its last snapshot
	// and retries on the next refresh.
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn().Err(err).Str("address", opts.Addr).Msg("Redis connection test failed")
	} else {
		logger.Log.Info().
			Str("address", opts.Addr).
			Int("pool_size", cfg.PoolSize).
			Msg("Redis connected")
	}

	return &Client{client: client}, nil
}

// HGet gets a hash field value, "" when the field is absent
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	result, err := c.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return result, err
}

// HGetAll gets all fields and values from a hash
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.client.HGetAll(ctx, key).Result()
}

// HSet sets a hash field value
func (c *Client) HSet(ctx context.Context, key, field string, value interface{}) error {
	return c.client.HSet(ctx, key, field, value).Err()
}

// HDel deletes hash fields
func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	return c.client.HDel(ctx, key, fields...).Err()
}

// SMembers gets all members of a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.client.SMembers(ctx, key).Result()
}

// Publish sends message on channel
func (c *Client) Publish(ctx context.Context, channel, message string) error {
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe listens on channel until ctx is done. The returned channel is
// closed when the subscription ends.
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	sub := c.client.Subscribe(ctx, channel)
	// wait for the subscription confirmation so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Ping tests the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.client.Close()
}

// PoolStats returns connection pool statistics for monitoring
func (c *Client) PoolStats() *redis.PoolStats {
	return c.client.PoolStats()
}
