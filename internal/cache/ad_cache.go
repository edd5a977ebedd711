package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"classifieds-service/internal/entity"
)

var (
	// ErrMiss is returned by Get when the ad is not cached.
	ErrMiss = errors.New("cache: miss")

	// ErrStale is returned by SetIfVersion when the ad was invalidated after
	// the caller read its version.
	ErrStale = errors.New("cache: stale version")
)

// versionTTL bounds how long a version counter outlives its last invalidation.
const versionTTL = 24 * time.Hour

// AdCache caches ads under "ad:<id>" next to a version counter "ad:<id>:v".
// Writers bump the counter on invalidation; fills carry the version they read
// before loading from storage and are dropped when it moved.
type AdCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAdCache(rdb *redis.Client, ttl time.Duration) *AdCache {
	return &AdCache{rdb: rdb, ttl: ttl}
}

func adKey(id int64) string      { return fmt.Sprintf("ad:%d", id) }
func versionKey(id int64) string { return fmt.Sprintf("ad:%d:v", id) }

func (c *AdCache) Get(ctx context.Context, id int64) (*entity.Ad, error) {
	data, err := c.rdb.Get(ctx, adKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var ad entity.Ad
	if err := json.Unmarshal(data, &ad); err != nil {
		return nil, fmt.Errorf("cache: decode ad %d: %w", id, err)
	}
	return &ad, nil
}

// Version returns the current invalidation counter of the ad, 0 if never invalidated.
func (c *AdCache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetIfVersion stores ad only while its counter still equals version.
func (c *AdCache) SetIfVersion(ctx context.Context, ad *entity.Ad, version int64) error {
	data, err := json.Marshal(ad)
	if err != nil {
		return err
	}

	vkey := versionKey(ad.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, adKey(ad.ID), data, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate bumps the ad's counter and drops the cached copy.
func (c *AdCache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Expire(ctx, versionKey(id), versionTTL)
		pipe.Del(ctx, adKey(id))
		return nil
	})
	return err
}

func (c *AdCache) Close() error { return c.rdb.Close() }
