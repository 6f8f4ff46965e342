// Package sweeper periodically removes expired registry entries.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/link-registry/internal/analytics"
	"github.com/serroba/link-registry/internal/messaging"
	"github.com/serroba/link-registry/internal/metrics"
	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// Trigger identifies the sweeper in purge events.
const Trigger = "sweeper"

// Sweeper purges expired entries on a fixed interval.
type Sweeper struct {
	registry *registry.Registry
	interval time.Duration
	publish  messaging.Publish[analytics.EntriesPurgedEvent]
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a sweeper. It does nothing until Start is called.
func New(
	reg *registry.Registry,
	interval time.Duration,
	publish messaging.Publish[analytics.EntriesPurgedEvent],
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		registry: reg,
		interval: interval,
		publish:  publish,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("sweep interval must be positive")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.Sweep(ctx)
			}
		}
	}()

	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))

	return nil
}

// Sweep runs one purge and reports the number of removed entries.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.registry.Now()

	removed, err := s.registry.PurgeExpired(ctx, now)
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))

		return 0, err
	}

	if removed == 0 {
		return 0, nil
	}

	metrics.EntriesPurged.Add(float64(removed))
	s.logger.Info("purged expired entries", zap.Int("removed", removed))

	event := &analytics.EntriesPurgedEvent{Removed: removed, PurgedAt: now, Trigger: Trigger}
	if err = s.publish(ctx, event); err != nil {
		s.logger.Error("failed to publish purge event", zap.Error(err))
	}

	return removed, nil
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	return nil
}

var _ messaging.Runnable = (*Sweeper)(nil)
