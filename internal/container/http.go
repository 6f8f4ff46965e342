package container

import (
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/link-registry/internal/handlers"
	"github.com/serroba/link-registry/internal/health"
	"github.com/serroba/link-registry/internal/messaging"
	"github.com/serroba/link-registry/internal/middleware"
	"github.com/serroba/link-registry/internal/ratelimit"
	"github.com/serroba/link-registry/internal/registry"
	"github.com/serroba/link-registry/internal/store"
	"github.com/serroba/link-registry/internal/sweeper"
	"go.uber.org/zap"
)

// RateLimitPackage provides the policy limiter and its scope resolver.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.RateLimitStore {
		case StoreRedis:
			return store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client), nil
		case StoreMemory, "":
			return store.NewRateLimitMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		st, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		return ratelimit.NewPolicyLimiter(st, ratelimit.DefaultPolicy()), nil
	})

	do.Provide(injector, func(_ *do.Injector) (ratelimit.ScopeResolver, error) {
		return ratelimit.NewOperationScopeResolver(), nil
	})
}

// SweeperPackage provides the expired-entry sweeper.
func SweeperPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*sweeper.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)

		reg, err := do.Invoke[*registry.Registry](i)
		if err != nil {
			return nil, err
		}

		publish, err := do.Invoke[handlers.Publishers](i)
		if err != nil {
			return nil, err
		}

		return sweeper.New(
			reg,
			time.Duration(opts.PurgeInterval)*time.Second,
			publish.EntriesPurged,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(middleware.Metrics)
		router.Handle("/metrics", promhttp.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		reg, err := do.Invoke[*registry.Registry](i)
		if err != nil {
			return nil, err
		}

		publish, err := do.Invoke[handlers.Publishers](i)
		if err != nil {
			return nil, err
		}

		limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Link Registry", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(api, limiter, do.MustInvoke[ratelimit.ScopeResolver](i), logger),
		)

		health.RegisterRoutes(api, health.NewHandler(logger, healthChecks(i, opts)...))
		handlers.RegisterRoutes(api, handlers.NewURLHandler(reg, opts.PublicBaseURL(), publish, logger))

		return api, nil
	})
}

func healthChecks(i *do.Injector, opts *Options) []health.Check {
	var checks []health.Check

	if st, err := do.Invoke[registry.Store](i); err == nil {
		if c, ok := st.(health.Checker); ok {
			checks = append(checks, health.Check{Name: "store", Checker: c})
		}
	}

	if opts.UsesRedis() {
		checks = append(checks, health.Check{
			Name:    "redis",
			Checker: health.NewRedisChecker(do.MustInvoke[*Redis](i).Client),
		})
	}

	return checks
}

// ServerRunnables returns the background components the server starts with the
// HTTP listener: the sweeper when enabled and in-process analytics consumers.
func ServerRunnables(i *do.Injector) ([]messaging.Runnable, error) {
	opts := do.MustInvoke[*Options](i)

	var runnables []messaging.Runnable

	if opts.PurgeInterval > 0 {
		s, err := do.Invoke[*sweeper.Sweeper](i)
		if err != nil {
			return nil, err
		}

		runnables = append(runnables, s)
	}

	if opts.Events == EventsMemory {
		group, err := do.Invoke[*messaging.ConsumerGroup](i)
		if err != nil {
			return nil, err
		}

		runnables = append(runnables, group)
	}

	return runnables, nil
}

