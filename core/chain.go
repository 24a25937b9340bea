package core

// Lovelace is the asset unit of the chain's native coin inside a Value.
const Lovelace = "lovelace"

// UTxORef identifies a single transaction output on chain.
type UTxORef struct {
	TxHash string // hex-encoded transaction hash
	Index  uint32 // output index within the transaction
}

// UTxO is a snapshot of an unspent output as reported by the chain
// provider. The snapshot is advisory: the output may be spent by a
// concurrent transaction between selection and submission.
type UTxO struct {
	Ref     UTxORef
	Address string
	Value   Value
	Datum   []byte // raw inline datum, nil if absent
}

// Value maps asset units to quantities. The native coin is keyed by
// Lovelace; every other asset is keyed by "<policyID>.<assetNameHex>".
type Value map[string]uint64

// Coin returns the native-coin quantity.
func (v Value) Coin() uint64 {
	return v[Lovelace]
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	out := make(Value, len(v))
	for unit, qty := range v {
		out[unit] = qty
	}
	return out
}

// Add accumulates other into v.
func (v Value) Add(other Value) {
	for unit, qty := range other {
		v[unit] += qty
	}
}

// Covers reports whether v holds at least the quantity of every asset in
// other.
func (v Value) Covers(other Value) bool {
	for unit, qty := range other {
		if v[unit] < qty {
			return false
		}
	}
	return true
}

// Sub removes other from v, dropping units that reach zero. Callers must
// check Covers first; Sub panics on underflow to make balancing bugs loud.
func (v Value) Sub(other Value) {
	for unit, qty := range other {
		have := v[unit]
		if have < qty {
			panic("value underflow: " + unit)
		}
		if have == qty {
			delete(v, unit)
		} else {
			v[unit] = have - qty
		}
	}
}

// Equal reports exact equality of all units.
func (v Value) Equal(other Value) bool {
	if len(v) != len(other) {
		return false
	}
	for unit, qty := range v {
		if other[unit] != qty {
			return false
		}
	}
	return true
}

// TxOutput is a requested output of a transaction under construction.
type TxOutput struct {
	Address string
	Value   Value
	Datum   []byte // raw datum to attach inline, nil for none
}

// AssetMetadata is the fixed metadata record attached to a minted asset.
// Field order is significant: the datum codec encodes these fields in
// declaration order.
type AssetMetadata struct {
	Name        string
	Image       string
	Description string
}

// MintRequest describes one requested asset issuance. It is transient:
// consumed by a single build attempt and never persisted except as an
// IssuanceRecord after on-chain success.
type MintRequest struct {
	AssetName string
	Metadata  AssetMetadata
	UTxO      UTxORef // service-wallet output nominated to fund the mint
	Requester string  // bech32 address of the authenticated requester
}
