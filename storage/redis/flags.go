// Package rediscache caches per-center feature flag sets in Redis so route
// guards do not hit Postgres on every navigation. Entries expire on their
// own and are deleted eagerly after a toggle.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/center"
)

const flagKeyPrefix = "center:flags:"

type FlagCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ center.FlagCache = (*FlagCache)(nil) // interface compliance check

func NewFlagCache(client *redis.Client, ttl time.Duration) *FlagCache {
	return &FlagCache{client: client, ttl: ttl}
}

// NewClient opens a Redis client from config.
func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func (c *FlagCache) Get(ctx context.Context, centerID string) (center.FlagSet, bool, error) {
	data, err := c.client.Get(ctx, flagKeyPrefix+centerID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "reading flag cache")
	}

	var flags center.FlagSet
	if err = json.Unmarshal(data, &flags); err != nil {
		return nil, false, errors.Wrap(err, "decoding flag cache entry")
	}
	if flags == nil { // a center with no rows caches as the empty set
		flags = center.FlagSet{}
	}
	return flags, true, nil
}

func (c *FlagCache) Set(ctx context.Context, centerID string, flags center.FlagSet) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return errors.Wrap(err, "encoding flag cache entry")
	}
	if err = c.client.Set(ctx, flagKeyPrefix+centerID, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "writing flag cache")
	}
	return nil
}

func (c *FlagCache) Invalidate(ctx context.Context, centerID string) error {
	if err := c.client.Del(ctx, flagKeyPrefix+centerID).Err(); err != nil {
		return errors.Wrap(err, "invalidating flag cache")
	}
	return nil
}
