package placement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// RedisClient is the subset of pkg/redis the source needs
type RedisClient interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// RedisSource reads placements from a hash of placement id -> JSON. Networks
// listed in the disabled set are switched off without touching the hash.
type RedisSource struct {
	client   RedisClient
	hash     string
	disabled string
}

// NewRedisSource creates a source over the default keys
func NewRedisSource(client RedisClient) *RedisSource {
	return &RedisSource{
		client:   client,
		hash:     config.RedisPlacementsHash,
		disabled: config.RedisDisabledNetworks,
	}
}

// Name implements Source
func (s *RedisSource) Name() string { return "redis" }

// Load implements Source
func (s *RedisSource) Load(ctx context.Context) (map[string]*Placement, error) {
	raw, err := s.client.HGetAll(ctx, s.hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get placements from Redis: %w", err)
	}

	members, err := s.client.SMembers(ctx, s.disabled)
	if err != nil {
		return nil, fmt.Errorf("failed to get disabled networks from Redis: %w", err)
	}
	disabled := make(map[string]bool, len(members))
	for _, network := range members {
		disabled[network] = true
	}

	result := make(map[string]*Placement, len(raw))
	for id, jsonStr := range raw {
		// placements stored without the flag are enabled
		p := &Placement{Enabled: true}
		if err := json.Unmarshal([]byte(jsonStr), p); err != nil {
			logger.Catalog().Warn().Err(err).Str("placement_id", id).Msg("Failed to parse placement")
			continue
		}
		p.ID = id
		if disabled[p.Network] {
			p.Enabled = false
		}
		result[id] = p
	}
	return result, nil
}
