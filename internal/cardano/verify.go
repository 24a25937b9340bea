package cardano

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"

	"github.com/layer-3/karat/core"
)

// VerifyChallengeSignature checks that signature was produced over exactly
// message by the private key behind publicKey, and that publicKey is the
// payment credential of the claimed address. The message is verified as-is:
// the wallet signs the raw challenge bytes, so any re-hashing or re-encoding
// here would break the check.
func VerifyChallengeSignature(message, signature, publicKey []byte, address string) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d bytes: %w", ed25519.PublicKeySize, core.ErrInvalidSignature)
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes: %w", ed25519.SignatureSize, core.ErrInvalidSignature)
	}

	if !ed25519.Verify(ed25519.PublicKey(publicKey), message, signature) {
		return core.ErrInvalidSignature
	}

	// A valid signature from an unrelated key proves nothing: the key must
	// hash to the payment credential of the claimed address.
	addr, err := ParseAddress(address)
	if err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrAddressMismatch)
	}
	credential, err := addr.PaymentKeyHash()
	if err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrAddressMismatch)
	}
	if subtle.ConstantTimeCompare(KeyHash(publicKey), credential) != 1 {
		return core.ErrAddressMismatch
	}

	return nil
}
