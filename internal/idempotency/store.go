// Package idempotency remembers the response to an order request by its
// Idempotency-Key so a retried request is answered without ordering twice.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:order:create:{key} -> pending | stored response
	keyFormat = "idem:order:create:%s"

	pendingMarker = "pending"

	DefaultTTL = 24 * time.Hour
)

// Response is a finished response kept for replay.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	rdb redisClient
	ttl time.Duration
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func NewRedisStore(rdb redisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Reserve claims key for a request about to run. It reports false when the
// key is already claimed or answered.
func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, redisKey(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Load returns the stored response for key. A key that is unknown or still
// pending has no response.
func (s *RedisStore) Load(ctx context.Context, key string) (*Response, bool, error) {
	val, err := s.rdb.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load idempotency key: %w", err)
	}
	if val == pendingMarker {
		return nil, false, nil
	}

	var resp Response
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(key), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

// Release drops a reservation so the request may be retried.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return fmt.Sprintf(keyFormat, key)
}
