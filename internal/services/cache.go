package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/metrics"
	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// JournalCacheTTL bounds staleness if an invalidation is ever missed
	JournalCacheTTL = 30 * time.Minute
)

// JournalCache caches per-owner journal lists exactly as stored (content still
// encrypted when encryption is on). Entries are versioned by a per-owner
// generation: Invalidate advances it, and a list read under an older generation
// is never served again.
type JournalCache interface {
	// Get returns the cached list for the owner's current generation, and that generation.
	Get(ctx context.Context, email string) (journals []models.Journal, gen int64, hit bool)
	// Set stores journals read while the owner was at generation gen.
	Set(ctx context.Context, email string, gen int64, journals []models.Journal)
	Invalidate(ctx context.Context, email string) error
}

// RedisJournalCache is a JournalCache on Redis. Read and write failures are
// logged and treated as misses; they never fail a request.
type RedisJournalCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJournalCache(client *redis.Client) *RedisJournalCache {
	return &RedisJournalCache{client: client, ttl: JournalCacheTTL}
}

// journalList wraps the slice because bson documents must be maps or structs.
type journalList struct {
	Items []models.Journal `bson:"items"`
}

func journalGenKey(email string) string {
	return CacheKey("journals_gen", email)
}

func journalListKey(email string, gen int64) string {
	return fmt.Sprintf("%s:%d", CacheKey("journals", email), gen)
}

func (c *RedisJournalCache) Get(ctx context.Context, email string) ([]models.Journal, int64, bool) {
	gen, err := c.client.Get(ctx, journalGenKey(email)).Int64()
	if err != nil && err != redis.Nil {
		logging.Warn().Err(err).Msg("journal cache generation read failed")
		metrics.CacheMisses.Inc()
		return nil, 0, false
	}

	raw, err := c.client.Get(ctx, journalListKey(email, gen)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.Warn().Err(err).Msg("journal cache read failed")
		}
		metrics.CacheMisses.Inc()
		return nil, gen, false
	}

	var list journalList
	if err := bson.Unmarshal(raw, &list); err != nil {
		logging.Warn().Err(err).Msg("journal cache entry corrupt")
		metrics.CacheMisses.Inc()
		return nil, gen, false
	}
	metrics.CacheHits.Inc()
	if list.Items == nil {
		list.Items = []models.Journal{}
	}
	return list.Items, gen, true
}

func (c *RedisJournalCache) Set(ctx context.Context, email string, gen int64, journals []models.Journal) {
	raw, err := bson.Marshal(journalList{Items: journals})
	if err != nil {
		logging.Warn().Err(err).Msg("journal cache encode failed")
		return
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, journalListKey(email, gen), raw, c.ttl)
		// the generation must outlive every list stored under it
		pipe.Expire(ctx, journalGenKey(email), 2*c.ttl)
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("journal cache write failed")
	}
}

func (c *RedisJournalCache) Invalidate(ctx context.Context, email string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, journalGenKey(email))
		pipe.Expire(ctx, journalGenKey(email), 2*c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate journal cache: %w", err)
	}
	return nil
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s%s:%s", CacheKeyPrefix, resource, identifier)
}
