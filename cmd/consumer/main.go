package main

import (
	"context"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/link-registry/internal/container"
	"github.com/serroba/link-registry/internal/messaging"
	"go.uber.org/zap"
)

// The consumer reads analytics events from Redis streams. It accepts the same
// flags and SERVICE_* variables as the server and ignores the HTTP ones.
func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		options.Events = container.EventsRedis

		injector := do.New()
		do.ProvideValue(injector, options)
		container.LoggerPackage(injector)
		container.RedisPackage(injector)
		container.ConsumerGroupPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)
		stopped := make(chan struct{})

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			if err := group.Start(context.Background()); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("consumer running", zap.String("redis", options.RedisAddr))
			<-stopped
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			close(stopped)
			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
