package registry

import (
	"strings"
	"time"
)

const (
	// DirectReferrer is recorded when a click carries no referrer.
	DirectReferrer = "Direct"
	// UnknownLocation is the only location value recorded for clicks.
	UnknownLocation = "Unknown"
)

// Code represents a short URL code.
type Code string

// Click is a single served redirect.
type Click struct {
	Timestamp time.Time
	Referrer  string
	Location  string
}

// Entry maps a short code to its original URL together with its click history.
// Its persisted form is the browser export layout, see EncodeEntries.
type Entry struct {
	ID              string
	OriginalURL     string
	ShortCode       Code
	CustomCode      string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ValidityMinutes int
	Clicks          []Click
}

// IsExpired reports whether the entry has expired at the given time.
// An entry is still active at exactly ExpiresAt.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// IsCustom reports whether the short code was supplied by the user.
func (e *Entry) IsCustom() bool {
	return e.CustomCode != ""
}

// Clone returns a deep copy so callers cannot mutate stored click slices.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Clicks = make([]Click, len(e.Clicks))
	copy(clone.Clicks, e.Clicks)

	return &clone
}

// FullShortURL joins the public origin and a short code.
func FullShortURL(baseOrigin string, code Code) string {
	return strings.TrimRight(baseOrigin, "/") + "/" + string(code)
}
