package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares memoized payloads between dashboards through redis.
// Keys expire with the staleness window of their fetch operation.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisStore(addr, password string, db int, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis", "addr", addr)
	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading %s from redis: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding %s from redis: %w", key, err)
	}
	r.logger.Debug("payload loaded from redis", "key", key)
	return e, true, nil
}

func (r *RedisStore) Save(ctx context.Context, e Entry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.Key, err)
	}
	if err := r.client.Set(ctx, redisKey(e.Key), b, ttl).Err(); err != nil {
		return fmt.Errorf("writing %s to redis: %w", e.Key, err)
	}
	r.logger.Debug("payload saved to redis", "key", e.Key, "ttl", ttl)
	return nil
}

func redisKey(key string) string {
	return "kyou:payload:" + key
}

var _ Backend = (*RedisStore)(nil)
