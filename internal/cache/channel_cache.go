package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyChannel = "channel:"

// ChannelCache caches channel-profile aggregations in Redis. Profiles are
// keyed per (channel, viewer) because isSubscribed depends on the viewer.
type ChannelCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewChannelCache returns a new ChannelCache.
func NewChannelCache(rdb *redis.Client, ttl time.Duration) *ChannelCache {
	return &ChannelCache{rdb: rdb, ttl: ttl}
}

func channelKey(username string, viewerID int64) string {
	return keyChannel + strings.ToLower(username) + ":" + strconv.FormatInt(viewerID, 10)
}

// Get returns the cached profile or nil on miss.
func (c *ChannelCache) Get(ctx context.Context, username string, viewerID int64) (*dom.ChannelProfile, error) {
	b, err := c.rdb.Get(ctx, channelKey(username, viewerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p dom.ChannelProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores the profile.
func (c *ChannelCache) Set(ctx context.Context, viewerID int64, p dom.ChannelProfile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, channelKey(p.Username, viewerID), b, c.ttl).Err()
}

// Invalidate removes every cached view of the channel (all viewers).
func (c *ChannelCache) Invalidate(ctx context.Context, username string) error {
	iter := c.rdb.Scan(ctx, 0, keyChannel+strings.ToLower(username)+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
