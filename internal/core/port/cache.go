package port

import (
	"context"
	"time"
)

// Cache exposes the read-through cache operations used for list and preference snapshots.
// Get returns repository.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CounterCache holds the fast-path counter values keyed by owner and counter name.
type CounterCache interface {
	Get(ctx context.Context, userID, name string) (int64, error)
	Set(ctx context.Context, userID, name string, value int64, ttl time.Duration) error
	Delete(ctx context.Context, userID, name string) error
	// IncrementBy atomically seeds the entry with seed when absent, adds delta and
	// refreshes the expiry, returning the new value.
	IncrementBy(ctx context.Context, userID, name string, delta, seed int64, ttl time.Duration) (int64, error)
}
