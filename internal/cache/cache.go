// Package cache memoizes full pipeline results in Redis keyed by the
// normalized prompt, scoped per user.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/database"
	"github.com/appforge/ai-engine/internal/models"
)

// Stats is a point-in-time snapshot of cache effectiveness
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// ResultCache stores computed task results keyed by normalized prompt
type ResultCache struct {
	rdb    *database.Redis
	ttl    time.Duration
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// New creates a result cache with the given entry TTL
func New(rdb *database.Redis, ttl time.Duration, logger *zap.Logger) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key derives the cache key for a user's prompt. Prompts are normalized
// (lowercased, whitespace collapsed) so trivially different phrasings of
// the same request share an entry, then hashed to keep keys short.
func Key(userID, prompt string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("appforge:result:%s:%s", userID, hex.EncodeToString(sum[:16]))
}

// Get returns the cached result for the prompt, or nil on a miss. Cache
// failures are reported as misses so the pipeline still runs.
func (c *ResultCache) Get(ctx context.Context, userID, prompt string) *models.TaskResult {
	raw, err := c.rdb.Client().Get(ctx, Key(userID, prompt)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		c.misses.Add(1)
		return nil
	}

	var result models.TaskResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", zap.Error(err))
		c.misses.Add(1)
		return nil
	}

	c.hits.Add(1)
	result.CacheHit = true
	return &result
}

// Set stores a computed result. Best effort: a failed write only logs.
func (c *ResultCache) Set(ctx context.Context, userID, prompt string, result *models.TaskResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Client().Set(ctx, Key(userID, prompt), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
		return
	}
	c.sets.Add(1)
}

// Stats returns hit/miss/set counters since process start
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}
