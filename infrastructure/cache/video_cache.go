package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"

	"github.com/redis/go-redis/v9"
)

const videoKeyPrefix = "video:"

// VideoCache keeps single-video lookups in Redis. A nil client disables it.
type VideoCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVideoCache(client *redis.Client, ttl time.Duration) *VideoCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VideoCache{client: client, ttl: ttl}
}

func videoKey(id string) string { return videoKeyPrefix + id }

// Get returns (nil, nil) on a miss.
func (c *VideoCache) Get(ctx context.Context, id string) (*model.Video, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, videoKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v model.Video
	if err := json.Unmarshal(raw, &v); err != nil {
		// stale encoding, drop it
		_ = c.client.Del(ctx, videoKey(id)).Err()
		return nil, nil
	}
	return &v, nil
}

func (c *VideoCache) Set(ctx context.Context, v *model.Video) error {
	if c.client == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, videoKey(v.ID), raw, c.ttl).Err()
}

func (c *VideoCache) Invalidate(ctx context.Context, id string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, videoKey(id)).Err()
}

var _ repository.IVideoCache = (*VideoCache)(nil)
