// Package config loads service configuration from the environment.
package config

import (
	"os"
	"time"
)

// Config carries everything main needs to wire the service.
type Config struct {
	ListenAddr string

	RedisURL string

	MongoURI      string
	MongoDatabase string

	// KoiosURL is the chain provider base, e.g.
	// "https://api.koios.rest/api/v1".
	KoiosURL        string
	ProviderTimeout time.Duration

	// SignerSeed is the 32-byte hex seed of the custodial payment key.
	SignerSeed string

	// PoolAddress is the bech32 address of the custodial wallet; mints and
	// reward payouts spend its outputs. It must be the address of the
	// signer seed's payment key, or submitted transactions will lack a
	// valid witness.
	PoolAddress string

	NonceTTL time.Duration
}

// FromEnv loads configuration, falling back to development defaults for
// everything except the signing seed and pool address.
func FromEnv() Config {
	return Config{
		ListenAddr:      getEnv("KARAT_LISTEN_ADDR", ":9000"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "karat"),
		KoiosURL:        getEnv("KOIOS_URL", "https://preprod.koios.rest/api/v1"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		SignerSeed:      os.Getenv("KARAT_SIGNER_SEED"),
		PoolAddress:     os.Getenv("KARAT_POOL_ADDRESS"),
		NonceTTL:        getEnvDuration("NONCE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
