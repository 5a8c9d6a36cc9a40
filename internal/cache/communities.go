// Package cache keeps community configuration in Redis so slot tables and
// admissions do not hit the database for every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/codr1/Courtside/internal/booking"
)

const (
	DefaultTTL    = 5 * time.Minute
	defaultPrefix = "courtside:community:"
	// loadTimeout bounds a shared load, which outlives any one caller.
	loadTimeout = 5 * time.Second
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the byte-level cache the community cache is built on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Communities is a read-through booking.CommunityProvider. Cache failures
// are logged and the request falls through to the wrapped provider.
type Communities struct {
	store  Store
	next   booking.CommunityProvider
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

var _ booking.CommunityProvider = (*Communities)(nil)

func NewCommunities(store Store, next booking.CommunityProvider, ttl time.Duration) *Communities {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Communities{store: store, next: next, ttl: ttl, prefix: defaultPrefix}
}

func (c *Communities) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

func (c *Communities) GetCommunity(ctx context.Context, id int64) (booking.Community, error) {
	logger := log.Ctx(ctx).With().Str("component", "community_cache").Int64("community_id", id).Logger()
	key := c.key(id)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var community booking.Community
		decodeErr := json.Unmarshal(raw, &community)
		if decodeErr == nil {
			return community, nil
		}
		logger.Warn().Err(decodeErr).Msg("Discarding undecodable cached community")
	case !errors.Is(err, ErrMiss):
		logger.Warn().Err(err).Msg("Community cache read failed")
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		community, err := c.next.GetCommunity(loadCtx, id)
		if err != nil {
			return booking.Community{}, err
		}
		encoded, err := json.Marshal(community)
		if err != nil {
			return community, nil
		}
		if err := c.store.Set(loadCtx, key, encoded, c.ttl); err != nil {
			logger.Warn().Err(err).Msg("Community cache write failed")
		}
		return community, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return booking.Community{}, res.Err
		}
		return res.Val.(booking.Community), nil
	case <-ctx.Done():
		return booking.Community{}, ctx.Err()
	}
}

// Invalidate drops the cached configuration for id.
func (c *Communities) Invalidate(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, c.key(id)); err != nil {
		return fmt.Errorf("invalidate community %d: %w", id, err)
	}
	return nil
}
