// Package wallet implements the WalletSigner port with an in-process
// custodial ed25519 payment key. Production deployments keep the key in
// the service environment; the build pipeline itself never touches it.
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/layer-3/karat/internal/cardano"
)

// Ed25519Signer signs transactions with a single payment key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// NewEd25519Signer wraps an existing private key.
func NewEd25519Signer(key ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{key: key}
}

// NewEd25519SignerFromSeed derives the signing key from a 32-byte hex seed.
func NewEd25519SignerFromSeed(seedHex string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode signer seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKey exposes the verification key, used to derive the service's
// minting policy and pool address credential.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// SignTx witnesses the transaction and returns the submittable bytes.
func (s *Ed25519Signer) SignTx(ctx context.Context, tx *cardano.UnsignedTx) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cardano.SignTx(tx, s.key)
}
