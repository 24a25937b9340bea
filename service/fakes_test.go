package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/layer-3/karat/core"
)

// fakeProvider serves canned unspent outputs and records submissions.
type fakeProvider struct {
	utxos     map[string][]core.UTxO
	utxosErr  error
	submitErr error
	submitted [][]byte
}

func (p *fakeProvider) UTxOsAt(ctx context.Context, address string) ([]core.UTxO, error) {
	if p.utxosErr != nil {
		return nil, p.utxosErr
	}
	return p.utxos[address], nil
}

func (p *fakeProvider) Submit(ctx context.Context, signedTx []byte) (string, error) {
	if p.submitErr != nil {
		return "", p.submitErr
	}
	p.submitted = append(p.submitted, signedTx)
	h := blake2b.Sum256(signedTx)
	return hex.EncodeToString(h[:]), nil
}

// fakePublisher records published events and optionally fails.
type fakePublisher struct {
	logouts   []string
	issuances []core.IssuanceRecord
	err       error
}

func (p *fakePublisher) PublishLogout(ctx context.Context, address, tokenID string) error {
	if p.err != nil {
		return p.err
	}
	p.logouts = append(p.logouts, tokenID)
	return nil
}

func (p *fakePublisher) PublishIssuance(ctx context.Context, rec core.IssuanceRecord) error {
	if p.err != nil {
		return p.err
	}
	p.issuances = append(p.issuances, rec)
	return nil
}

func testWalletKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
