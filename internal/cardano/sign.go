package cardano

import (
	"crypto/ed25519"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// SignTx witnesses an unsigned transaction with an ed25519 payment key and
// returns the submittable signed form: [body, witness_set, true, null].
// The signature covers the transaction id (blake2b-256 of the body), which
// is what hardware and browser wallets sign as well.
func SignTx(tx *UnsignedTx, key ed25519.PrivateKey) ([]byte, error) {
	id := blake2b.Sum256(tx.Body)
	sig := ed25519.Sign(key, id[:])
	pub := key.Public().(ed25519.PublicKey)

	witnesses := map[uint64]interface{}{
		0: []interface{}{
			[]interface{}{[]byte(pub), sig},
		},
	}

	switch s := tx.Script.(type) {
	case nil:
	case NativeScript:
		witnesses[1] = []interface{}{cbor.RawMessage(s.Bytes())}
	case PlutusScript:
		switch s.Version {
		case PlutusV1:
			witnesses[3] = []interface{}{s.Code}
		case PlutusV2:
			witnesses[6] = []interface{}{s.Code}
		default:
			return nil, fmt.Errorf("unsupported plutus version %d", s.Version)
		}
	default:
		return nil, fmt.Errorf("unsupported script type %T", tx.Script)
	}

	if len(tx.Redeemers) > 0 {
		entries := make([]interface{}, len(tx.Redeemers))
		for i, r := range tx.Redeemers {
			data, err := toCBOR(r.Data, 0)
			if err != nil {
				return nil, err
			}
			// Execution units are re-evaluated by the submitting provider.
			entries[i] = []interface{}{uint64(r.Tag), uint64(r.Index), data, []interface{}{uint64(0), uint64(0)}}
		}
		witnesses[5] = entries
	}

	signed, err := datumEncMode.Marshal([]interface{}{
		cbor.RawMessage(tx.Body),
		witnesses,
		true,
		nil,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal signed tx: %w", err)
	}
	return signed, nil
}
