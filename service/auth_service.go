package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/internal/cardano"
	"github.com/layer-3/karat/ports"
)

// AuthService handles wallet challenge authentication and session tokens.
type AuthService struct {
	nonces    ports.NonceStore
	tokenizer ports.Tokenizer
	store     ports.Store
	eventPub  ports.EventPublisher
	log       zerolog.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	nonces ports.NonceStore,
	tokenizer ports.Tokenizer,
	store ports.Store,
	eventPub ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		nonces:     nonces,
		tokenizer:  tokenizer,
		store:      store,
		eventPub:   eventPub,
		log:        log.With().Str("service", "auth").Logger(),
		accessTTL:  5 * time.Minute,
		refreshTTL: 5 * 24 * time.Hour, // 5 days
	}
}

// AccessTokenTTL reports how long issued access tokens stay valid.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// CreateChallenge issues a fresh nonce for the wallet address. Issuing
// supersedes any earlier unconsumed nonce for the same address.
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (string, error) {
	if _, err := cardano.ParseAddress(address); err != nil {
		return "", fmt.Errorf("invalid wallet address: %w", err)
	}

	nonce, err := s.nonces.Issue(ctx, address)
	if err != nil {
		return "", fmt.Errorf("failed to issue nonce: %w", err)
	}
	return nonce, nil
}

// Login verifies a signed challenge and mints session tokens. The
// signature is checked first (pure), then the nonce is consumed
// atomically: of two concurrent logins presenting the same nonce, exactly
// one reaches token issuance.
func (s *AuthService) Login(ctx context.Context, address, publicKeyHex, signatureHex, nonce string) (string, string, error) {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", "", fmt.Errorf("malformed public key: %w", core.ErrInvalidSignature)
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return "", "", fmt.Errorf("malformed signature: %w", core.ErrInvalidSignature)
	}

	if err := cardano.VerifyChallengeSignature([]byte(nonce), signature, publicKey, address); err != nil {
		return "", "", err
	}

	if err := s.nonces.Consume(ctx, address, nonce); err != nil {
		return "", "", err
	}

	now := time.Now()
	identity := core.WalletIdentity{Address: address, VerifiedAt: now}
	session := &core.Session{
		ID:            uuid.New().String(),
		Address:       identity.Address,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// Invalidate the old refresh token for the remainder of its lifetime.
	remainingTime := time.Until(session.RefreshExpiry)
	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	now := time.Now()
	newSession := &core.Session{
		ID:            uuid.New().String(),
		Address:       session.Address,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	// Even an expired token goes on the list briefly, in case of clock
	// skew between instances.
	var remainingTime time.Duration
	if time.Now().After(session.RefreshExpiry) {
		remainingTime = time.Hour
	} else {
		remainingTime = time.Until(session.RefreshExpiry)
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	// The token is already invalidated; a failed event is not worth
	// failing the logout over.
	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		s.log.Warn().Err(err).Str("address", session.Address).Msg("failed to publish logout event")
	}

	return nil
}

// ValidateAccessToken checks an access token's signature, expiry, and the
// revocation status of its linked refresh token.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}
