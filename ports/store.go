package ports

import (
	"context"
	"time"
)

// NonceStore issues and invalidates single-use challenge values, keyed by
// wallet address. At most one unconsumed nonce exists per address: issuing
// a new one supersedes the prior value.
type NonceStore interface {
	// Issue generates, persists, and returns a fresh nonce for address,
	// overwriting any prior unconsumed nonce.
	Issue(ctx context.Context, address string) (string, error)

	// Consume atomically deletes the stored nonce if and only if it
	// byte-matches presented. Exactly one of any number of concurrent
	// Consume calls for the same nonce succeeds; all others observe
	// core.ErrInvalidNonce.
	Consume(ctx context.Context, address, presented string) error
}

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
