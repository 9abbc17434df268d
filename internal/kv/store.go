// Package kv abstracts the shared key-value store backing the chatbot's
// cross-request state: rate windows, chat sessions, the response cache, and
// the monthly spend accumulator. Production deployments use Redis; the
// in-memory driver serves tests and single-node setups.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownDriver is returned when a store is requested for an
// unrecognized driver name.
var ErrUnknownDriver = errors.New("kv: unknown driver")

// Store is a minimal TTL-aware key-value store. Implementations must be safe
// for concurrent use. IncrByFloat and SetNX must be atomic where the backing
// store supports it, so budget accounting never loses updates.
type Store interface {
	// Get returns the value for key. found is false when the key does not
	// exist or has expired; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value only if key does not already exist. Returns true
	// if the value was stored.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// IncrByFloat atomically adds delta to the float stored at key (missing
	// keys start at zero) and returns the new total. The ttl is applied to
	// the key on every call.
	IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
