package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/ports"
)

// MemoryNonceStore is an in-process implementation of the nonce store,
// used in tests and single-instance deployments.
type MemoryNonceStore struct {
	nonces map[string]string
	mu     sync.Mutex
}

// NewMemoryNonceStore creates an empty in-memory nonce store.
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[string]string)}
}

// Issue overwrites any prior nonce for the address.
func (s *MemoryNonceStore) Issue(ctx context.Context, address string) (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	s.mu.Lock()
	s.nonces[address] = nonce
	s.mu.Unlock()

	return nonce, nil
}

// Consume compares and deletes under one lock, mirroring the atomicity the
// Redis script provides.
func (s *MemoryNonceStore) Consume(ctx context.Context, address, presented string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.nonces[address]
	if !ok || stored != presented {
		return core.ErrInvalidNonce
	}
	delete(s.nonces, address)
	return nil
}

// MemoryStore is an in-memory implementation of the revocation Store.
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
}

// NewMemoryStore creates a new in-memory revocation store.
func NewMemoryStore() ports.Store {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
	}
}

// InvalidateToken marks a token as invalidated.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidatedTokens[tokenID] = time.Now().Add(expiry)
	return nil
}

// IsTokenInvalidated checks if a token is invalidated.
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// An expired invalidation record no longer matters: the token itself
	// has expired by then.
	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}
