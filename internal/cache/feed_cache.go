package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	FeedCacheTTL       = 5 * time.Minute
	feedCacheKeyPrefix = "feed:public"
)

// FeedCache caches rendered public feed pages keyed by their filter params.
// A nil FeedCache (no Redis configured) is a no-op on every method.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache wraps a Redis client; pass nil to disable caching
func NewFeedCache(client *redis.Client) *FeedCache {
	if client == nil {
		return nil
	}
	return &FeedCache{client: client, ttl: FeedCacheTTL}
}

func feedKey(tenantID, itemType, sortBy string, limit, offset int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%d", feedCacheKeyPrefix, tenantID, itemType, sortBy, limit, offset)
}

// Get unmarshals a cached page into dest; found=false on miss
func (f *FeedCache) Get(ctx context.Context, tenantID, itemType, sortBy string, limit, offset int, dest interface{}) (bool, error) {
	if f == nil {
		return false, nil
	}
	raw, err := f.client.Get(ctx, feedKey(tenantID, itemType, sortBy, limit, offset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a page with the cache TTL
func (f *FeedCache) Set(ctx context.Context, tenantID, itemType, sortBy string, limit, offset int, page interface{}) error {
	if f == nil {
		return nil
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return f.client.Set(ctx, feedKey(tenantID, itemType, sortBy, limit, offset), raw, f.ttl).Err()
}

// Invalidate drops every cached page for a tenant, called after new content
func (f *FeedCache) Invalidate(ctx context.Context, tenantID string) error {
	if f == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:%s:*", feedCacheKeyPrefix, tenantID)
	iter := f.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := f.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
