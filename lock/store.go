// Package lock provides distributed per-domain mutual exclusion and
// inter-crawl throttling on top of a shared keyed store.
package lock

import (
	"context"
	"time"
)

// KeyedStore is the atomic primitive surface the locker needs. The redis
// implementation backs multi-process deployments; the in-memory store backs
// tests and single-process debug runs.
type KeyedStore interface {
	// SetNX stores value under key with a TTL only if the key is absent.
	// Returns true when the write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Get returns the stored value, or "" when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with a TTL, overwriting any prior value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes the key.
	Del(ctx context.Context, key string) error
}
