package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/tachera/mlango/core/center"
)

func setup(t *testing.T) *FlagCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFlagCache(client, time.Minute)
}

func TestFlagCacheRoundTrip(t *testing.T) {
	cache := setup(t)
	ctx := context.Background()

	// cold cache
	flags, ok, err := cache.Get(ctx, "center-7")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, flags)

	want := center.FlagSet{center.FeatureFinance: false, center.FeatureHomework: true}
	assert.NoError(t, cache.Set(ctx, "center-7", want))

	flags, ok, err = cache.Get(ctx, "center-7")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, flags)

	// default-allow semantics survive the round trip
	assert.False(t, flags.Enabled(center.FeatureFinance))
	assert.True(t, flags.Enabled(center.FeatureAttendance))
}

func TestFlagCacheEmptySet(t *testing.T) {
	cache := setup(t)
	ctx := context.Background()

	// a center with no flag rows is a hit, not a miss
	assert.NoError(t, cache.Set(ctx, "center-9", center.FlagSet{}))

	flags, ok, err := cache.Get(ctx, "center-9")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, flags)
	assert.True(t, flags.Enabled(center.FeatureFinance))
}

func TestFlagCacheInvalidate(t *testing.T) {
	cache := setup(t)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, "center-7", center.FlagSet{center.FeatureTests: false}))
	assert.NoError(t, cache.Invalidate(ctx, "center-7"))

	_, ok, err := cache.Get(ctx, "center-7")
	assert.NoError(t, err)
	assert.False(t, ok)
}
