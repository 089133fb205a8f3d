package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vincula-api/internal/observability"
)

const defaultMatchCacheTTL = 30 * time.Second

// MatchCache stores profile-scoped match rankings. Entries are namespaced by a
// generation counter so a single Invalidate retires every ranking at once.
type MatchCache interface {
	Load(ctx context.Context, scope string, profileID uint, limit int, dest interface{}) bool
	Store(ctx context.Context, scope string, profileID uint, limit int, value interface{})
	Invalidate(ctx context.Context)
}

type redisMatchCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewMatchCache returns a Redis backed cache, or a no-op cache when client is nil.
func NewMatchCache(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) MatchCache {
	if client == nil {
		return noopMatchCache{}
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "vincula"
	}
	if ttl <= 0 {
		ttl = defaultMatchCacheTTL
	}
	return &redisMatchCache{
		client: client,
		prefix: prefix + ":matches",
		ttl:    ttl,
		logger: logger.With().Str("component", "match_cache").Logger(),
	}
}

func (c *redisMatchCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *redisMatchCache) key(ctx context.Context, scope string, profileID uint, limit int) (string, error) {
	generation, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s:%d:%d", c.prefix, generation, scope, profileID, limit), nil
}

func (c *redisMatchCache) Load(ctx context.Context, scope string, profileID uint, limit int, dest interface{}) bool {
	key, err := c.key(ctx, scope, profileID, limit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read match cache generation")
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read match cache")
		}
		observability.MatchCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt match cache entry")
		observability.MatchCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	observability.MatchCacheLookups().WithLabelValues("hit").Inc()
	return true
}

func (c *redisMatchCache) Store(ctx context.Context, scope string, profileID uint, limit int, value interface{}) {
	key, err := c.key(ctx, scope, profileID, limit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read match cache generation")
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal match cache entry")
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to write match cache")
	}
}

func (c *redisMatchCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to bump match cache generation")
	}
}

type noopMatchCache struct{}

func (noopMatchCache) Load(context.Context, string, uint, int, interface{}) bool { return false }
func (noopMatchCache) Store(context.Context, string, uint, int, interface{})     {}
func (noopMatchCache) Invalidate(context.Context)                                {}
