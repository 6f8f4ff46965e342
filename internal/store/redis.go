package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// DefaultRedisKey holds the collection when no key is configured.
const DefaultRedisKey = "link_registry:entries"

// RedisStore is a Redis implementation of registry.Store keeping the collection
// as one JSON string value.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore creates a new Redis-backed entry store.
func NewRedisStore(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: client,
		key:    key,
		logger: logger,
	}
}

func (r *RedisStore) Load(ctx context.Context) ([]registry.Entry, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []registry.Entry{}, nil
		}

		return nil, registry.ReadFailed(err)
	}

	return decodeOrEmpty(data, r.logger, "redis"), nil
}

func (r *RedisStore) Save(ctx context.Context, entries []registry.Entry) error {
	data, err := registry.EncodeEntries(entries)
	if err != nil {
		return registry.WriteFailed(err)
	}

	if err = r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return registry.WriteFailed(err)
	}

	return nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ registry.Store = (*RedisStore)(nil)
