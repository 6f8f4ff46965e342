package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL             string `doc:"The URL to shorten"                                  example:"https://example.com/very/long/path" json:"url"`
		CustomCode      string `doc:"Optional custom short code, 3-20 letters or digits"  example:"mylink"                             json:"customCode,omitempty"`
		ValidityMinutes int    `doc:"Minutes the short URL stays active (default 30)"     example:"30"                                 json:"validityMinutes,omitempty"`
	}
}

// EntryView is the public representation of a registry entry.
type EntryView struct {
	ID              string    `doc:"Entry identifier"                json:"id"`
	Code            string    `doc:"The short code"                  example:"abc123"                       json:"code"`
	ShortURL        string    `doc:"The full short URL"              example:"http://localhost:8888/abc123" json:"shortUrl"`
	OriginalURL     string    `doc:"The original URL"                example:"https://example.com"          json:"originalUrl"`
	Custom          bool      `doc:"Whether the code was user-supplied" json:"custom"`
	CreatedAt       time.Time `doc:"Creation time"                   json:"createdAt"`
	ExpiresAt       time.Time `doc:"Expiry time"                     json:"expiresAt"`
	ValidityMinutes int       `doc:"Validity window in minutes"      json:"validityMinutes"`
	ClickCount      int       `doc:"Number of recorded clicks"       json:"clickCount"`
	Status          string    `doc:"active or expired"               enum:"active,expired"                  json:"status"`
}

// ClickView is the public representation of a recorded click.
type ClickView struct {
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer"`
	Location  string    `json:"location"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body EntryView
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location     string `header:"Location"`
		CacheControl string `header:"Cache-Control"`
	}
}

// GetEntryRequest is the request for one entry's statistics.
type GetEntryRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// GetEntryResponse holds one entry and its click log.
type GetEntryResponse struct {
	Body struct {
		Entry  EntryView   `json:"entry"`
		Clicks []ClickView `json:"clicks"`
	}
}

// ListEntriesResponse lists every entry with aggregate counts.
type ListEntriesResponse struct {
	Body struct {
		Entries     []EntryView `json:"entries"`
		TotalURLs   int         `json:"totalUrls"`
		TotalClicks int         `json:"totalClicks"`
		Active      int         `json:"active"`
		Expired     int         `json:"expired"`
	}
}

// PurgeResponse reports how many expired entries were removed.
type PurgeResponse struct {
	Body struct {
		Removed int `doc:"Number of expired entries removed" json:"removed"`
	}
}
