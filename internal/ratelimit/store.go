package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key over a trailing window.
type Store interface {
	// Record adds a hit for key and returns how many hits fall inside the
	// trailing window, including this one. Hits older than the window are dropped.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
