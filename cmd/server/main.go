package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/link-registry/internal/analytics"
	"github.com/serroba/link-registry/internal/container"
	"github.com/serroba/link-registry/internal/handlers"
	"github.com/serroba/link-registry/internal/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.RegistryPackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.SweeperPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			runnables, err := container.ServerRunnables(injector)
			if err != nil {
				logger.Fatal("failed to build background workers", zap.Error(err))
			}

			for _, r := range runnables {
				if err = r.Start(context.Background()); err != nil {
					logger.Fatal("failed to start background worker", zap.Error(err))
				}
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.Store),
				zap.String("baseUrl", options.PublicBaseURL()),
			)

			if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			// Background workers are services of the injector and stop with it.
			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired entries once and exit",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := do.New()
			registerPackages(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)

			defer func() {
				if err := injector.Shutdown(); err != nil {
					logger.Error("service shutdown error", zap.Error(err))
				}
			}()

			removed, err := purge(context.Background(), injector)
			if err != nil {
				logger.Error("purge failed", zap.Error(err))

				return
			}

			logger.Info("purge complete", zap.Int("removed", removed))
		}),
	})

	cli.Run()
}

func purge(ctx context.Context, injector *do.Injector) (int, error) {
	reg, err := do.Invoke[*registry.Registry](injector)
	if err != nil {
		return 0, err
	}

	now := reg.Now()

	removed, err := reg.PurgeExpired(ctx, now)
	if err != nil || removed == 0 {
		return removed, err
	}

	publish, err := do.Invoke[handlers.Publishers](injector)
	if err != nil {
		return removed, err
	}

	event := &analytics.EntriesPurgedEvent{Removed: removed, PurgedAt: now, Trigger: "cli"}
	if err = publish.EntriesPurged(ctx, event); err != nil {
		do.MustInvoke[*zap.Logger](injector).Error("failed to publish purge event", zap.Error(err))
	}

	return removed, nil
}
