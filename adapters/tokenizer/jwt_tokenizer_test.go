package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/ports"
)

func newTestTokenizer(t *testing.T) ports.Tokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key)
}

func testSession() *core.Session {
	now := time.Now().Truncate(time.Second)
	return &core.Session{
		ID:            uuid.New().String(),
		Address:       "addr_test1xyz",
		IssuedAt:      now,
		AccessExpiry:  now.Add(5 * time.Minute),
		RefreshExpiry: now.Add(5 * 24 * time.Hour),
		RefreshID:     uuid.New().String(),
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)
	session := testSession()

	token, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)

	got, err := tk.AccessTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Address, got.Address)
	assert.Equal(t, session.RefreshID, got.RefreshID)
	assert.WithinDuration(t, session.AccessExpiry, got.AccessExpiry, time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)
	session := testSession()

	token, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)

	got, err := tk.RefreshTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.Address, got.Address)
	assert.Equal(t, session.RefreshID, got.RefreshID)
	assert.WithinDuration(t, session.RefreshExpiry, got.RefreshExpiry, time.Second)
}

func TestAudiencesAreNotInterchangeable(t *testing.T) {
	tk := newTestTokenizer(t)
	session := testSession()

	access, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)
	refresh, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)

	_, err = tk.RefreshTokenToSession(access)
	assert.Error(t, err)
	_, err = tk.AccessTokenToSession(refresh)
	assert.Error(t, err)
}

func TestForeignKeyIsRejected(t *testing.T) {
	tk := newTestTokenizer(t)
	other := newTestTokenizer(t)

	token, err := tk.SessionToAccessToken(testSession())
	require.NoError(t, err)

	_, err = other.AccessTokenToSession(token)
	assert.Error(t, err)
}

func TestExpiredTokensSurfaceAsExpired(t *testing.T) {
	tk := newTestTokenizer(t)
	session := testSession()
	session.AccessExpiry = time.Now().Add(-time.Minute)
	session.RefreshExpiry = time.Now().Add(-time.Minute)

	access, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)
	_, err = tk.AccessTokenToSession(access)
	assert.ErrorIs(t, err, core.ErrTokenExpired)

	refresh, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)
	_, err = tk.RefreshTokenToSession(refresh)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	tk := newTestTokenizer(t)

	_, err := tk.AccessTokenToSession("not.a.token")
	assert.Error(t, err)
}
