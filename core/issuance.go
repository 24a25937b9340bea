package core

import "time"

// IssuanceRecord is the durable record of one completed on-chain action.
// For asset mints the natural identity is (PolicyID, AssetName); for plain
// value transfers (reward payouts) it is the transaction hash.
type IssuanceRecord struct {
	PolicyID  string
	AssetName string
	TxHash    string
	Creator   string
	Recipient string
	CreatedAt time.Time
}

// Key returns the natural identity the ledger deduplicates on.
func (r IssuanceRecord) Key() string {
	if r.PolicyID != "" {
		return r.PolicyID + "." + r.AssetName
	}
	return r.TxHash
}

// Same reports whether two records describe the same completed action,
// ignoring the recording timestamp. A retried write after a crash carries
// a fresh CreatedAt but identical chain facts.
func (r IssuanceRecord) Same(other IssuanceRecord) bool {
	return r.PolicyID == other.PolicyID &&
		r.AssetName == other.AssetName &&
		r.TxHash == other.TxHash &&
		r.Creator == other.Creator &&
		r.Recipient == other.Recipient
}
