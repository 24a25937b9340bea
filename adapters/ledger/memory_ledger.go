package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/layer-3/karat/core"
)

// MemoryLedger is an in-process IssuanceLedger for tests and local runs.
type MemoryLedger struct {
	records map[string]core.IssuanceRecord
	mu      sync.Mutex
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]core.IssuanceRecord)}
}

// Record mirrors the Mongo semantics: first write wins, identical retries
// are no-ops, divergent payloads conflict.
func (l *MemoryLedger) Record(ctx context.Context, rec core.IssuanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.records[rec.Key()]
	if !ok {
		l.records[rec.Key()] = rec
		return nil
	}
	if !existing.Same(rec) {
		return core.ErrIssuanceConflict
	}
	return nil
}

// Lookup returns the record under key, or nil when absent.
func (l *MemoryLedger) Lookup(ctx context.Context, key string) (*core.IssuanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListByCreator returns the creator's records, newest first.
func (l *MemoryLedger) ListByCreator(ctx context.Context, creator string) ([]core.IssuanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var recs []core.IssuanceRecord
	for _, rec := range l.records {
		if rec.Creator == creator {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}
