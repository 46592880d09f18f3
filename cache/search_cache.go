package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"melodex/core/ingest"
	"melodex/logger"
)

const searchKeyPrefix = "melodex:search:"

// SearchCache memoizes import candidate searches in Redis. Entries are
// short-lived; the video source is the authority and staleness past the TTL
// is acceptable. All cache failures degrade to a miss.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache creates a SearchCache with the given TTL.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

func (c *SearchCache) Get(ctx context.Context, query string) ([]ingest.Candidate, bool) {
	raw, err := c.client.Get(ctx, searchKeyPrefix+query).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("search cache read failed", logger.String("query", query), logger.ErrorField(err))
		}
		return nil, false
	}

	var candidates []ingest.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		logger.Warn("search cache entry corrupt", logger.String("query", query), logger.ErrorField(err))
		return nil, false
	}
	return candidates, true
}

func (c *SearchCache) Set(ctx context.Context, query string, candidates []ingest.Candidate) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, searchKeyPrefix+query, raw, c.ttl).Err(); err != nil {
		logger.Warn("search cache write failed", logger.String("query", query), logger.ErrorField(err))
	}
}
