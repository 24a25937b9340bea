package ports

import (
	"context"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/internal/cardano"
)

// ChainProvider is the external chain-query service. Both calls are
// I/O-bound and must respect ctx deadlines; a timed-out call is treated as
// failed, never assumed-succeeded.
type ChainProvider interface {
	// UTxOsAt returns the current unspent outputs controlled by address.
	// The result is an advisory snapshot.
	UTxOsAt(ctx context.Context, address string) ([]core.UTxO, error)

	// Submit sends a signed transaction and returns the transaction hash
	// the chain accepted it under. Double-spend rejections surface as
	// core.ErrSubmissionRejected.
	Submit(ctx context.Context, signedTx []byte) (string, error)
}

// WalletSigner signs transactions on behalf of the service wallet. The
// signer is external to the build pipeline; builders never see keys.
type WalletSigner interface {
	SignTx(ctx context.Context, tx *cardano.UnsignedTx) ([]byte, error)
}
