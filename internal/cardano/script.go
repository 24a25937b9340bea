package cardano

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/layer-3/karat/core"
)

// Script is on-chain logic that authorizes minting or spending.
type Script interface {
	// Bytes returns the serialized script as it appears in a witness set.
	Bytes() []byte

	// Hash returns the script hash (the policy id for minting policies).
	Hash() []byte
}

// PlutusVersion selects the script language tag used when hashing and
// witnessing a Plutus script.
type PlutusVersion uint8

const (
	PlutusV1 PlutusVersion = 1
	PlutusV2 PlutusVersion = 2
)

// NativeScript is the single-signature native script: minting requires a
// witness from the key hashed into it.
type NativeScript struct {
	KeyHash []byte
}

// NewNativeScript builds a signature native script for a public key.
func NewNativeScript(publicKey []byte) NativeScript {
	return NativeScript{KeyHash: KeyHash(publicKey)}
}

// Bytes serializes the script as [0, keyhash].
func (s NativeScript) Bytes() []byte {
	raw, err := datumEncMode.Marshal([]interface{}{uint64(0), s.KeyHash})
	if err != nil {
		// Fixed-shape input; Marshal cannot fail on it.
		panic(err)
	}
	return raw
}

// Hash returns blake2b-224 over the language prefix and script bytes.
// Native scripts use prefix 0x00.
func (s NativeScript) Hash() []byte {
	return scriptHash(0x00, s.Bytes())
}

// PlutusScript is compiled Plutus code used as a minting policy or
// spending validator.
type PlutusScript struct {
	Version PlutusVersion
	Code    []byte
}

func (s PlutusScript) Bytes() []byte {
	return s.Code
}

func (s PlutusScript) Hash() []byte {
	return scriptHash(byte(s.Version), s.Code)
}

func scriptHash(prefix byte, script []byte) []byte {
	h, _ := blake2b.New(KeyHashSize, nil)
	h.Write([]byte{prefix})
	h.Write(script)
	return h.Sum(nil)
}

// PolicyID returns the hex policy id of a minting policy script.
func PolicyID(s Script) string {
	return hex.EncodeToString(s.Hash())
}

// RedeemerTag names the script purpose a redeemer applies to.
type RedeemerTag uint8

const (
	RedeemerSpend RedeemerTag = 0
	RedeemerMint  RedeemerTag = 1
)

// Redeemer is the input handed to a Plutus script at spend/mint time.
type Redeemer struct {
	Tag   RedeemerTag
	Index uint32
	Data  PlutusData
}

// AssetUnit formats the ledger unit of an asset under a policy.
func AssetUnit(policyID, assetName string) string {
	return policyID + "." + hex.EncodeToString([]byte(assetName))
}

// SplitUnit parses a "<policyIDHex>.<assetNameHex>" unit into its raw
// policy id and asset name bytes.
func SplitUnit(unit string) (policy, name []byte, err error) {
	for i := 0; i < len(unit); i++ {
		if unit[i] != '.' {
			continue
		}
		policy, err = hex.DecodeString(unit[:i])
		if err != nil || len(policy) != KeyHashSize {
			return nil, nil, fmt.Errorf("bad policy id in unit %q: %w", unit, core.ErrScriptInvalid)
		}
		name, err = hex.DecodeString(unit[i+1:])
		if err != nil {
			return nil, nil, fmt.Errorf("bad asset name in unit %q: %w", unit, core.ErrScriptInvalid)
		}
		return policy, name, nil
	}
	return nil, nil, fmt.Errorf("unit %q has no policy separator: %w", unit, core.ErrScriptInvalid)
}
