package cardano

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
)

func TestVerifyChallengeSignature(t *testing.T) {
	pub, priv := testKeyPair(t)
	address := EnterpriseAddress("addr_test", pub).String()

	message := []byte("d1f3c2a9e8b74650")
	signature := ed25519.Sign(priv, message)

	require.NoError(t, VerifyChallengeSignature(message, signature, pub, address))
}

func TestVerifyChallengeSignatureWrongMessage(t *testing.T) {
	pub, priv := testKeyPair(t)
	address := EnterpriseAddress("addr_test", pub).String()

	signature := ed25519.Sign(priv, []byte("d1f3c2a9e8b74650"))

	err := VerifyChallengeSignature([]byte("something else"), signature, pub, address)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyChallengeSignatureUnrelatedKey(t *testing.T) {
	// A valid signature from an attacker's own key must not authenticate
	// the victim's address.
	victimPub, _ := testKeyPair(t)
	attackerPub, attackerPriv := testKeyPair(t)
	victimAddress := EnterpriseAddress("addr_test", victimPub).String()

	message := []byte("d1f3c2a9e8b74650")
	signature := ed25519.Sign(attackerPriv, message)

	err := VerifyChallengeSignature(message, signature, attackerPub, victimAddress)
	assert.ErrorIs(t, err, core.ErrAddressMismatch)
}

func TestVerifyChallengeSignatureMalformedInputs(t *testing.T) {
	pub, priv := testKeyPair(t)
	address := EnterpriseAddress("addr_test", pub).String()
	message := []byte("d1f3c2a9e8b74650")
	signature := ed25519.Sign(priv, message)

	assert.ErrorIs(t, VerifyChallengeSignature(message, signature, pub[:16], address), core.ErrInvalidSignature)
	assert.ErrorIs(t, VerifyChallengeSignature(message, signature[:32], pub, address), core.ErrInvalidSignature)
	assert.ErrorIs(t, VerifyChallengeSignature(message, signature, pub, "not-an-address"), core.ErrAddressMismatch)
}
