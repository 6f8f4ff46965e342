package analytics

import "time"

const (
	TopicEntryCreated  = "entry.created"
	TopicEntryClicked  = "entry.clicked"
	TopicEntriesPurged = "entries.purged"
)

// EntryCreatedEvent is emitted when a short URL is created.
type EntryCreatedEvent struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	OriginalURL     string    `json:"originalUrl"`
	Custom          bool      `json:"custom"`
	ValidityMinutes int       `json:"validityMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	ClientIP        string    `json:"clientIp"`
	UserAgent       string    `json:"userAgent"`
}

// EntryClickedEvent is emitted when an active short code is resolved.
type EntryClickedEvent struct {
	Code      string    `json:"code"`
	ClickedAt time.Time `json:"clickedAt"`
	Referrer  string    `json:"referrer"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// EntriesPurgedEvent is emitted when expired entries were removed.
type EntriesPurgedEvent struct {
	Removed  int       `json:"removed"`
	PurgedAt time.Time `json:"purgedAt"`
	Trigger  string    `json:"trigger"` // "sweeper", "api" or "cli"
}
