package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// RedisCacheStore wraps a Store with a Redis copy of the serialized collection.
type RedisCacheStore struct {
	store  registry.Store
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheStore creates a new Redis-cached store decorator.
func NewRedisCacheStore(
	store registry.Store, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheStore {
	return &RedisCacheStore{
		store:  store,
		client: client,
		key:    "link_registry:cache:entries",
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached collection, falling back to the underlying store on a miss.
func (c *RedisCacheStore) Load(ctx context.Context) ([]registry.Entry, error) {
	if data, err := c.client.Get(ctx, c.key).Bytes(); err == nil {
		if entries, err := registry.DecodeEntries(data); err == nil {
			return entries, nil
		}

		// A bad cache value is dropped, the store stays authoritative
		c.invalidate(ctx)
	}

	entries, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	c.cache(ctx, entries)

	return entries, nil
}

// Save writes through to the underlying store and refreshes the cache.
func (c *RedisCacheStore) Save(ctx context.Context, entries []registry.Entry) error {
	if err := c.store.Save(ctx, entries); err != nil {
		c.invalidate(ctx)

		return err
	}

	c.cache(ctx, entries)

	return nil
}

func (c *RedisCacheStore) cache(ctx context.Context, entries []registry.Entry) {
	data, err := registry.EncodeEntries(entries)
	if err != nil {
		return
	}

	if err = c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("failed to refresh entry cache", zap.Error(err))
	}
}

func (c *RedisCacheStore) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Debug("failed to invalidate entry cache", zap.Error(err))
	}
}

// Ping checks the cache and the underlying store when it supports pinging.
func (c *RedisCacheStore) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}

	if p, ok := c.store.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Shutdown is a no-op for RedisCacheStore (client managed externally).
func (c *RedisCacheStore) Shutdown() error {
	return nil
}

var _ registry.Store = (*RedisCacheStore)(nil)
