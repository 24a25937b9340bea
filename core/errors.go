package core

import "errors"

var (
	// Authentication
	ErrInvalidNonce     = errors.New("invalid nonce")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAddressMismatch  = errors.New("public key does not match address")

	// Session tokens
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")

	// Chain interaction
	ErrUTxONotFound       = errors.New("unspent output not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrScriptInvalid      = errors.New("invalid script")
	ErrDatumInvalid       = errors.New("invalid datum")
	ErrSubmissionRejected = errors.New("transaction rejected by chain")
	ErrProviderTimeout    = errors.New("chain provider timed out")

	// Bookkeeping
	ErrIssuanceConflict = errors.New("conflicting issuance record")
)
