package port

import (
	"context"
	"time"
)

// RateLimitStore records a request in an identifier's sliding window and returns the number of
// requests inside the window, the current one included. Purge, insert, count and expiry refresh
// run as a single atomic unit.
type RateLimitStore interface {
	Hit(ctx context.Context, identifier string, window time.Duration, now time.Time) (int, error)
}
