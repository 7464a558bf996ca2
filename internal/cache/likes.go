// Package cache keeps a per-user set of liked emoji ids in Redis so the
// grid can mark liked emojis without a table scan on every render. The
// database stays the source of truth; entries expire and are repopulated
// from it.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type LikesCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLikesCache(client *redis.Client, ttl time.Duration) *LikesCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LikesCache{client: client, ttl: ttl}
}

func likedKey(userID string) string {
	return fmt.Sprintf("likes:user:%s", userID)
}

// Get returns the cached liked-emoji ids. ok is false when there is no
// entry for the user, which is distinct from a user with no likes.
func (c *LikesCache) Get(ctx context.Context, userID string) ([]int, bool, error) {
	key := likedKey(userID)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("check liked set: %w", err)
	}
	if exists == 0 {
		return nil, false, nil
	}

	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read liked set: %w", err)
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue // skip the sentinel and anything malformed
		}
		ids = append(ids, id)
	}
	return ids, true, nil
}

// emptySentinel keeps a key alive for users with zero likes, so an empty
// set is still a cache hit.
const emptySentinel = "-"

// Replace rebuilds the user's entry from ids in one pipeline.
func (c *LikesCache) Replace(ctx context.Context, userID string, ids []int) error {
	key := likedKey(userID)
	members := make([]interface{}, 0, len(ids)+1)
	members = append(members, emptySentinel)
	for _, id := range ids {
		members = append(members, strconv.Itoa(id))
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace liked set: %w", err)
	}
	return nil
}

// Add records a new like on an existing entry; absent entries are left
// absent so the next read repopulates from the database.
func (c *LikesCache) Add(ctx context.Context, userID string, emojiID int) error {
	key := likedKey(userID)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check liked set: %w", err)
	}
	if exists == 0 {
		return nil
	}
	if err := c.client.SAdd(ctx, key, strconv.Itoa(emojiID)).Err(); err != nil {
		return fmt.Errorf("add to liked set: %w", err)
	}
	return nil
}

func (c *LikesCache) Remove(ctx context.Context, userID string, emojiID int) error {
	if err := c.client.SRem(ctx, likedKey(userID), strconv.Itoa(emojiID)).Err(); err != nil {
		return fmt.Errorf("remove from liked set: %w", err)
	}
	return nil
}

// Invalidate drops the user's entry entirely, used when an emoji deletion
// cascades likes away for other users as well as the owner.
func (c *LikesCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, likedKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate liked set: %w", err)
	}
	return nil
}
