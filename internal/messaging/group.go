package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Runnable is a background component with a start/stop lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops a set of Runnables together and closes the
// shared subscriber after they stopped.
type ConsumerGroup struct {
	runnables  []Runnable
	subscriber io.Closer
	logger     *zap.Logger
}

// NewConsumerGroup creates a new group. subscriber may be nil.
func NewConsumerGroup(subscriber io.Closer, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a runnable with the group.
func (g *ConsumerGroup) Add(r Runnable) {
	g.runnables = append(g.runnables, r)
}

// Start starts every runnable in order. If one fails, those already started are
// shut down in reverse order.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, r := range g.runnables {
		if err := r.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.runnables[j].Shutdown()
			}

			return fmt.Errorf("failed to start runnable %d: %w", i, err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("count", len(g.runnables)))

	return nil
}

// Shutdown stops every runnable and returns all errors encountered.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var errs []error

	for _, r := range g.runnables {
		if err := r.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if g.subscriber != nil {
		if err := g.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
