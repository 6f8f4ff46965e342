package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/link-registry/internal/handlers"
	"github.com/serroba/link-registry/internal/registry"
	"github.com/serroba/link-registry/internal/shortcode"
	"github.com/serroba/link-registry/internal/store"
	"go.uber.org/zap"
)

// Redis owns the shared Redis client.
type Redis struct {
	*redis.Client
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the shared connection pool.
type Postgres struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// RedisPackage provides the Redis client. It connects lazily on first use.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the PostgreSQL connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}

// StorePackage provides the registry.Store selected by Options.Store.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (registry.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Store {
		case StoreMemory:
			return store.NewMemoryStore(logger), nil
		case StoreRedis:
			client := do.MustInvoke[*Redis](i)

			return store.NewRedisStore(client.Client, opts.RedisKey, logger), nil
		case StoreSQLite:
			st, err := store.OpenSQLiteStore(opts.SQLitePath, logger)
			if err != nil {
				return nil, fmt.Errorf("opening sqlite store: %w", err)
			}

			return st, nil
		case StorePostgres:
			return newPostgresStore(i, opts, logger)
		default:
			return nil, fmt.Errorf("unknown store %q", opts.Store)
		}
	})
}

func newPostgresStore(i *do.Injector, opts *Options, logger *zap.Logger) (registry.Store, error) {
	pool, err := do.Invoke[*Postgres](i)
	if err != nil {
		return nil, err
	}

	pg := store.NewPostgresStore(pool.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = pg.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating postgres schema: %w", err)
	}

	if opts.CacheTTL <= 0 {
		return pg, nil
	}

	client := do.MustInvoke[*Redis](i)

	return store.NewRedisCacheStore(pg, client.Client, time.Duration(opts.CacheTTL)*time.Second, logger), nil
}

// RegistryPackage provides the registry and its code generator.
func RegistryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*registry.Registry, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		st, err := do.Invoke[registry.Store](i)
		if err != nil {
			return nil, err
		}

		generator, err := shortcode.NewGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return registry.NewRegistry(st, generator, logger,
			registry.WithMaxAttempts(opts.MaxAttempts),
			registry.WithDefaultValidity(opts.ValidityMinutes),
			registry.WithReservedCodes(handlers.ReservedCodes...),
		), nil
	})
}
