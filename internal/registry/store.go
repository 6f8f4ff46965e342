package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// Store persists the whole entry collection.
//
// Load returns an empty collection when nothing is stored or when the stored payload
// cannot be decoded. It only fails when the medium itself is unreachable, with an
// error matching ErrReadFailed.
//
// Save replaces the persisted collection. A rejected write returns an error matching
// ErrWriteFailed. There is no locking: the last writer wins.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// timestampLayout is the browser's Date.toISOString form: UTC, fixed milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type timestamp time.Time

func (t timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var parsed time.Time
	if err := parsed.UnmarshalJSON(data); err != nil {
		return err
	}

	*t = timestamp(parsed.UTC())

	return nil
}

// Field order matches the browser export so a loaded collection saves back byte
// for byte.
type persistedClick struct {
	Timestamp timestamp `json:"timestamp"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
}

type persistedEntry struct {
	ID              string           `json:"id"`
	OriginalURL     string           `json:"originalUrl"`
	ShortCode       Code             `json:"shortCode"`
	CustomShortCode string           `json:"customShortCode,omitempty"`
	CreatedAt       timestamp        `json:"createdAt"`
	ExpiryDate      timestamp        `json:"expiryDate"`
	ValidityMinutes int              `json:"validityMinutes"`
	Clicks          []persistedClick `json:"clicks"`
}

func toPersisted(e Entry) persistedEntry {
	clicks := make([]persistedClick, 0, len(e.Clicks))
	for _, c := range e.Clicks {
		clicks = append(clicks, persistedClick{
			Timestamp: timestamp(c.Timestamp),
			Source:    c.Referrer,
			Location:  c.Location,
		})
	}

	return persistedEntry{
		ID:              e.ID,
		OriginalURL:     e.OriginalURL,
		ShortCode:       e.ShortCode,
		CustomShortCode: e.CustomCode,
		CreatedAt:       timestamp(e.CreatedAt),
		ExpiryDate:      timestamp(e.ExpiresAt),
		ValidityMinutes: e.ValidityMinutes,
		Clicks:          clicks,
	}
}

// fromPersisted converts a decoded entry. Missing or null clicks become an
// empty log.
func fromPersisted(p persistedEntry) Entry {
	clicks := make([]Click, 0, len(p.Clicks))
	for _, c := range p.Clicks {
		clicks = append(clicks, Click{
			Timestamp: time.Time(c.Timestamp),
			Referrer:  c.Source,
			Location:  c.Location,
		})
	}

	return Entry{
		ID:              p.ID,
		OriginalURL:     p.OriginalURL,
		ShortCode:       p.ShortCode,
		CustomCode:      p.CustomShortCode,
		CreatedAt:       time.Time(p.CreatedAt),
		ExpiresAt:       time.Time(p.ExpiryDate),
		ValidityMinutes: p.ValidityMinutes,
		Clicks:          clicks,
	}
}

// EncodeEntries serializes a collection into its persisted representation.
// Like JSON.stringify, it leaves <, > and & unescaped.
func EncodeEntries(entries []Entry) ([]byte, error) {
	persisted := make([]persistedEntry, 0, len(entries))
	for _, e := range entries {
		persisted = append(persisted, toPersisted(e))
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(persisted); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeEntries parses a persisted collection. Empty input yields an empty collection.
func DecodeEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var persisted []persistedEntry
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(persisted))
	for _, p := range persisted {
		entries = append(entries, fromPersisted(p))
	}

	return entries, nil
}
