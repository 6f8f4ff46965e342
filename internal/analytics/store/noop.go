package store

import (
	"context"

	"github.com/serroba/link-registry/internal/analytics"
	"go.uber.org/zap"
)

// Noop is an analytics.Store that only logs the events it receives.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new logging analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveEntryCreated(_ context.Context, event *analytics.EntryCreatedEvent) error {
	n.logger.Info("entry created event received",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.Bool("custom", event.Custom),
		zap.Time("expiresAt", event.ExpiresAt),
	)

	return nil
}

func (n *Noop) SaveEntryClicked(_ context.Context, event *analytics.EntryClickedEvent) error {
	n.logger.Info("entry clicked event received",
		zap.String("code", event.Code),
		zap.Time("clickedAt", event.ClickedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

func (n *Noop) SaveEntriesPurged(_ context.Context, event *analytics.EntriesPurgedEvent) error {
	n.logger.Info("entries purged event received",
		zap.Int("removed", event.Removed),
		zap.String("trigger", event.Trigger),
	)

	return nil
}

var _ analytics.Store = (*Noop)(nil)
