package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of processed request keys so a
// retried request (e.g. a payment registration replayed by a flaky client)
// returns the original result instead of being applied twice.
type IdempotencyStore interface {
	// Reserve claims a key for the duration of one request. fresh is true
	// when the key was unclaimed. For a known key the stored result is
	// returned; an empty result means the original request is still in flight.
	Reserve(ctx context.Context, key string, ttl time.Duration) (fresh bool, result string, err error)

	// Complete stores the result of a successfully processed key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Release frees a reserved key after a failed request so a corrected
	// retry is accepted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed keys; after this duration the
	// same key is accepted again
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
