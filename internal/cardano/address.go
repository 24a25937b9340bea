// Package cardano implements the chain-specific primitives the service
// depends on: bech32 payment addresses, ed25519 challenge-signature
// verification, the Plutus datum codec, and transaction construction.
// Everything in this package is pure; I/O stays in the adapters.
package cardano

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	// KeyHashSize is the size of a payment credential (blake2b-224).
	KeyHashSize = 28

	// minAddressSize is header byte + payment credential.
	minAddressSize = 1 + KeyHashSize
)

// Address is a decoded bech32 payment address.
type Address struct {
	hrp string
	raw []byte
}

// ParseAddress decodes a bech32 payment address. Stake/reward and script
// addresses parse fine; credential checks happen in PaymentKeyHash.
func ParseAddress(s string) (Address, error) {
	// DecodeNoLimit: payment addresses exceed the BIP-173 90-char limit.
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("decode address: %w", err)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("convert address bits: %w", err)
	}
	if len(raw) < minAddressSize {
		return Address{}, fmt.Errorf("address too short: %d bytes", len(raw))
	}

	return Address{hrp: hrp, raw: raw}, nil
}

// EnterpriseAddress builds a payment-key-only address for a public key.
// hrp selects the network: "addr" for mainnet, "addr_test" otherwise.
func EnterpriseAddress(hrp string, publicKey []byte) Address {
	// Enterprise key-hash header: type 0b0110, network in the low nibble.
	header := byte(0x60)
	if hrp == "addr" {
		header |= 0x01
	}
	raw := append([]byte{header}, KeyHash(publicKey)...)
	return Address{hrp: hrp, raw: raw}
}

// HRP returns the human-readable prefix ("addr", "addr_test").
func (a Address) HRP() string {
	return a.hrp
}

// Bytes returns the raw address bytes (header + credentials).
func (a Address) Bytes() []byte {
	return a.raw
}

// String re-encodes the address to its bech32 form.
func (a Address) String() string {
	data, err := bech32.ConvertBits(a.raw, 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(a.hrp, data)
	if err != nil {
		return ""
	}
	return s
}

// PaymentKeyHash extracts the payment credential. It fails for addresses
// whose payment part is a script hash: challenge signatures can only be
// checked against key-hash credentials.
func (a Address) PaymentKeyHash() ([]byte, error) {
	// Header nibble: bit 4 set means the payment part is a script hash.
	if a.raw[0]&0x10 != 0 {
		return nil, fmt.Errorf("payment credential is a script hash")
	}
	return a.raw[1 : 1+KeyHashSize], nil
}

// KeyHash returns the blake2b-224 hash of a public key, the form payment
// credentials take inside addresses.
func KeyHash(publicKey []byte) []byte {
	h, _ := blake2b.New(KeyHashSize, nil)
	h.Write(publicKey)
	return h.Sum(nil)
}

// KeyHashHex is KeyHash in the hex form used by API payloads.
func KeyHashHex(publicKey []byte) string {
	return hex.EncodeToString(KeyHash(publicKey))
}
