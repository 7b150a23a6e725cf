package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recentCacheTTL = 15 * time.Minute

// RecentQuestionCache caches the recent-question exclusion set per
// (user, scope) in Redis, saving a history scan on every session start.
// A cache miss or a Redis error just means reading through to the store.
type RecentQuestionCache struct {
	client *redis.Client
}

// NewRecentQuestionCache wraps a Redis client. A nil client disables the
// cache entirely.
func NewRecentQuestionCache(client *redis.Client) *RecentQuestionCache {
	return &RecentQuestionCache{client: client}
}

func recentKey(userID, scope string) string {
	return fmt.Sprintf("dose:recent:%s:%s", scope, userID)
}

// Get returns the cached exclusion set, or ok=false on miss/error.
func (c *RecentQuestionCache) Get(ctx context.Context, userID, scope string) (map[string]bool, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, recentKey(userID, scope)).Bytes()
	if err != nil {
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, true
}

// Set stores an exclusion set with a TTL. Errors are discarded: the cache
// is advisory.
func (c *RecentQuestionCache) Set(ctx context.Context, userID, scope string, ids map[string]bool) {
	if c == nil || c.client == nil {
		return
	}

	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	c.client.Set(ctx, recentKey(userID, scope), raw, recentCacheTTL)
}

// Invalidate drops the cached set; called after session completion so the
// next session sees the just-answered questions.
func (c *RecentQuestionCache) Invalidate(ctx context.Context, userID, scope string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, recentKey(userID, scope))
}
