package ports

import (
	"context"

	"github.com/layer-3/karat/core"
)

// IssuanceLedger durably records completed on-chain actions. Record is
// idempotent on the record's natural key: re-recording the same completed
// action (a retry after a crash between submission and persistence) is a
// no-op, while a different payload under an existing key fails with
// core.ErrIssuanceConflict.
type IssuanceLedger interface {
	Record(ctx context.Context, rec core.IssuanceRecord) error
	Lookup(ctx context.Context, key string) (*core.IssuanceRecord, error)
	ListByCreator(ctx context.Context, creator string) ([]core.IssuanceRecord, error)
}
