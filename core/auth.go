package core

import "time"

// Session represents an authenticated wallet session
type Session struct {
	ID            string    // Unique session identifier
	Address       string    // Bech32 payment address of the wallet
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// WalletIdentity is the result of a successful challenge verification.
// It is derived, never stored: the identity exists only long enough to be
// turned into session tokens.
type WalletIdentity struct {
	Address    string
	VerifiedAt time.Time
}
