package cardano

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/layer-3/karat/core"
)

// UnsignedTx is a fully balanced transaction awaiting an external
// signature. Body is the canonical CBOR body the wallet signs; ID is the
// transaction hash the chain will report once the signed form is accepted.
type UnsignedTx struct {
	Body      []byte
	ID        string
	Inputs    []core.UTxORef
	Outputs   []core.TxOutput
	Fee       uint64
	Mint      core.Value
	Script    Script // minting policy witness, nil when nothing is minted
	Redeemers []Redeemer
}

// TxBuilder assembles unsigned transactions. A builder carries the one
// minting policy the service issues under; plain transfers leave it unused.
type TxBuilder struct {
	policy Script
}

// NewTxBuilder returns a builder minting under policy. A nil policy is
// valid for builders that only ever construct transfers.
func NewTxBuilder(policy Script) *TxBuilder {
	return &TxBuilder{policy: policy}
}

// PolicyID returns the hex policy id of the builder's minting policy.
func (b *TxBuilder) PolicyID() string {
	if b.policy == nil {
		return ""
	}
	return PolicyID(b.policy)
}

// Build composes inputs, an optional mint, and the requested outputs into
// a balanced unsigned transaction. Leftover value is routed to
// changeAddress. The fee is supplied by the caller (fee estimation is the
// chain provider's job); Build guarantees
// sum(inputs) + mint == sum(outputs) + change + fee.
func (b *TxBuilder) Build(inputs []core.UTxO, mint core.Value, outputs []core.TxOutput, changeAddress string, fee uint64) (*UnsignedTx, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs: %w", core.ErrInsufficientFunds)
	}

	available := make(core.Value)
	for _, in := range inputs {
		available.Add(in.Value)
	}

	var redeemers []Redeemer
	if len(mint) > 0 {
		if b.policy == nil {
			return nil, fmt.Errorf("mint requested without a minting policy: %w", core.ErrScriptInvalid)
		}
		policyID := PolicyID(b.policy)
		for unit := range mint {
			p, _, err := SplitUnit(unit)
			if err != nil {
				return nil, err
			}
			if hex.EncodeToString(p) != policyID {
				return nil, fmt.Errorf("minted unit %q is not under policy %s: %w", unit, policyID, core.ErrScriptInvalid)
			}
		}
		// Plutus policies take a redeemer; native scripts are witnessed by
		// signature alone.
		if _, plutus := b.policy.(PlutusScript); plutus {
			redeemers = append(redeemers, Redeemer{
				Tag:   RedeemerMint,
				Index: 0,
				Data:  Constr{Tag: 0},
			})
		}
		available.Add(mint)
	}

	requested := make(core.Value)
	for _, out := range outputs {
		if _, err := ParseAddress(out.Address); err != nil {
			return nil, fmt.Errorf("output address: %w", err)
		}
		requested.Add(out.Value)
	}

	need := requested.Clone()
	need[core.Lovelace] += fee
	if !available.Covers(need) {
		return nil, fmt.Errorf("inputs cover %d lovelace, need %d plus assets: %w",
			available.Coin(), need.Coin(), core.ErrInsufficientFunds)
	}

	change := available
	change.Sub(need)
	finalOutputs := append([]core.TxOutput(nil), outputs...)
	if len(change) > 0 {
		if _, err := ParseAddress(changeAddress); err != nil {
			return nil, fmt.Errorf("change address: %w", err)
		}
		finalOutputs = append(finalOutputs, core.TxOutput{Address: changeAddress, Value: change})
	}

	refs := make([]core.UTxORef, len(inputs))
	for i, in := range inputs {
		refs[i] = in.Ref
	}
	sortRefs(refs)

	var script Script
	if len(mint) > 0 {
		script = b.policy
	}

	body, err := encodeBody(refs, finalOutputs, mint, fee)
	if err != nil {
		return nil, err
	}
	id := blake2b.Sum256(body)

	return &UnsignedTx{
		Body:      body,
		ID:        hex.EncodeToString(id[:]),
		Inputs:    refs,
		Outputs:   finalOutputs,
		Fee:       fee,
		Mint:      mint,
		Script:    script,
		Redeemers: redeemers,
	}, nil
}

// sortRefs orders inputs canonically by (tx hash, index), matching how the
// ledger indexes redeemers.
func sortRefs(refs []core.UTxORef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].TxHash != refs[j].TxHash {
			return refs[i].TxHash < refs[j].TxHash
		}
		return refs[i].Index < refs[j].Index
	})
}

func encodeBody(inputs []core.UTxORef, outputs []core.TxOutput, mint core.Value, fee uint64) ([]byte, error) {
	ins := make([]interface{}, len(inputs))
	for i, ref := range inputs {
		h, err := hex.DecodeString(ref.TxHash)
		if err != nil || len(h) != 32 {
			return nil, fmt.Errorf("input tx hash %q is not a 32-byte hex string: %w", ref.TxHash, core.ErrUTxONotFound)
		}
		ins[i] = []interface{}{h, uint64(ref.Index)}
	}

	outs := make([]interface{}, len(outputs))
	for i, out := range outputs {
		enc, err := encodeOutput(out)
		if err != nil {
			return nil, err
		}
		outs[i] = enc
	}

	body := map[uint64]interface{}{
		0: ins,
		1: outs,
		2: fee,
	}
	if len(mint) > 0 {
		m, err := encodeMint(mint)
		if err != nil {
			return nil, err
		}
		body[9] = m
	}

	raw, err := datumEncMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal tx body: %w", err)
	}
	return raw, nil
}

func encodeOutput(out core.TxOutput) (interface{}, error) {
	addr, err := ParseAddress(out.Address)
	if err != nil {
		return nil, err
	}
	val, err := encodeValue(out.Value)
	if err != nil {
		return nil, err
	}
	enc := map[uint64]interface{}{
		0: addr.Bytes(),
		1: val,
	}
	if out.Datum != nil {
		// Inline datum: [1, #6.24(bytes)].
		enc[2] = []interface{}{uint64(1), cbor.Tag{Number: 24, Content: out.Datum}}
	}
	return enc, nil
}

func encodeValue(v core.Value) (interface{}, error) {
	if len(v) == 1 {
		if coin, ok := v[core.Lovelace]; ok {
			return coin, nil
		}
	}
	assets := make(map[cbor.ByteString]map[cbor.ByteString]uint64)
	for unit, qty := range v {
		if unit == core.Lovelace {
			continue
		}
		// Malformed units (a provider row with bad hex, for instance) must
		// fail the build; dropping them would unbalance the transaction.
		policy, name, err := SplitUnit(unit)
		if err != nil {
			return nil, err
		}
		p := cbor.ByteString(policy)
		if assets[p] == nil {
			assets[p] = make(map[cbor.ByteString]uint64)
		}
		assets[p][cbor.ByteString(name)] = qty
	}
	return []interface{}{v.Coin(), assets}, nil
}

func encodeMint(mint core.Value) (interface{}, error) {
	m := make(map[cbor.ByteString]map[cbor.ByteString]int64)
	for unit, qty := range mint {
		policy, name, err := SplitUnit(unit)
		if err != nil {
			return nil, err
		}
		p := cbor.ByteString(policy)
		if m[p] == nil {
			m[p] = make(map[cbor.ByteString]int64)
		}
		m[p][cbor.ByteString(name)] = int64(qty)
	}
	return m, nil
}
