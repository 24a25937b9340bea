package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/ports"
)

const nonceBytes = 32

// consumeScript is an atomic compare-and-delete: the nonce is removed only
// when the stored value byte-matches the presented one, so exactly one of
// any number of concurrent consumers wins.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNonceStore keeps one unconsumed nonce per wallet address.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisNonceStore creates a nonce store over an existing Redis client.
func NewRedisNonceStore(client *redis.Client, ttl time.Duration) ports.NonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "karat:nonce:",
		ttl:    ttl,
	}
}

// Issue stores a fresh random nonce under the address key, superseding any
// prior unconsumed nonce for that address.
func (s *RedisNonceStore) Issue(ctx context.Context, address string) (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	if err := s.client.Set(ctx, s.prefix+address, nonce, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}
	return nonce, nil
}

// Consume deletes the stored nonce iff it matches presented.
func (s *RedisNonceStore) Consume(ctx context.Context, address, presented string) error {
	n, err := consumeScript.Run(ctx, s.client, []string{s.prefix + address}, presented).Int()
	if err != nil {
		return fmt.Errorf("consume nonce: %w", err)
	}
	if n == 0 {
		return core.ErrInvalidNonce
	}
	return nil
}

// RedisStore is a Redis implementation of the token-revocation Store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis revocation store.
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{
		client: client,
		prefix: "karat:invalidated:",
	}
}

// InvalidateToken marks a token as invalidated in Redis.
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis.
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}
