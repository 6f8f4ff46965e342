package analytics

import "context"

// Store persists analytics events received by the consumer.
type Store interface {
	SaveEntryCreated(ctx context.Context, event *EntryCreatedEvent) error
	SaveEntryClicked(ctx context.Context, event *EntryClickedEvent) error
	SaveEntriesPurged(ctx context.Context, event *EntriesPurgedEvent) error
}
