package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecommendationCache is a short-TTL read-through cache for recommendation
// results. Stale entries are acceptable: the engine only promises eventual
// visibility between unrelated record and recommend calls.
type RecommendationCache struct {
	client *Client
	ttl    time.Duration
}

// NewRecommendationCache creates a recommendation cache with the given TTL
func NewRecommendationCache(client *Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(userID string, limit int) string {
	return fmt.Sprintf("recs:%s:%d", userID, limit)
}

// Get returns the cached product ids for the user, if present
func (c *RecommendationCache) Get(ctx context.Context, userID string, limit int) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID, limit))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var productIDs []string
	if err := json.Unmarshal([]byte(raw), &productIDs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached recommendations: %w", err)
	}
	return productIDs, true, nil
}

// Set stores the product ids for the user with the configured TTL
func (c *RecommendationCache) Set(ctx context.Context, userID string, limit int, productIDs []string) error {
	raw, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations for cache: %w", err)
	}
	return c.client.Set(ctx, cacheKey(userID, limit), raw, c.ttl)
}
