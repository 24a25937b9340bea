package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
)

func mintRecord(asset, txHash string) core.IssuanceRecord {
	return core.IssuanceRecord{
		PolicyID:  strings.Repeat("ab", 28),
		AssetName: asset,
		TxHash:    txHash,
		Creator:   "addr_test1creator",
		Recipient: "addr_test1creator",
		CreatedAt: time.Now(),
	}
}

func TestLedgerRecordAndLookup(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	rec := mintRecord("cert-001", strings.Repeat("aa", 32))
	require.NoError(t, l.Record(ctx, rec))

	got, err := l.Lookup(ctx, rec.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Same(rec))
}

func TestLedgerLookupMissing(t *testing.T) {
	l := NewMemoryLedger()

	got, err := l.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerIdenticalRetryIsNoop(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	rec := mintRecord("cert-001", strings.Repeat("aa", 32))
	require.NoError(t, l.Record(ctx, rec))

	// A crash-retry carries a fresh timestamp but the same chain facts.
	retry := rec
	retry.CreatedAt = rec.CreatedAt.Add(time.Minute)
	assert.NoError(t, l.Record(ctx, retry))
}

func TestLedgerDivergentWriteConflicts(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	rec := mintRecord("cert-001", strings.Repeat("aa", 32))
	require.NoError(t, l.Record(ctx, rec))

	other := rec
	other.Creator = "addr_test1somebodyelse"
	assert.ErrorIs(t, l.Record(ctx, other), core.ErrIssuanceConflict)
}

func TestLedgerListByCreatorNewestFirst(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	older := mintRecord("cert-001", strings.Repeat("aa", 32))
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := mintRecord("cert-002", strings.Repeat("bb", 32))
	foreign := mintRecord("cert-003", strings.Repeat("cc", 32))
	foreign.Creator = "addr_test1somebodyelse"

	require.NoError(t, l.Record(ctx, older))
	require.NoError(t, l.Record(ctx, newer))
	require.NoError(t, l.Record(ctx, foreign))

	recs, err := l.ListByCreator(ctx, "addr_test1creator")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "cert-002", recs[0].AssetName)
	assert.Equal(t, "cert-001", recs[1].AssetName)
}

func TestRecordKeyForTransfers(t *testing.T) {
	// Payouts have no minted asset; the tx hash is the identity.
	rec := core.IssuanceRecord{TxHash: strings.Repeat("aa", 32)}
	assert.Equal(t, rec.TxHash, rec.Key())
}
