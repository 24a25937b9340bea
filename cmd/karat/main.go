package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/layer-3/karat/adapters/chain"
	"github.com/layer-3/karat/adapters/events"
	"github.com/layer-3/karat/adapters/ledger"
	"github.com/layer-3/karat/adapters/store"
	"github.com/layer-3/karat/adapters/tokenizer"
	"github.com/layer-3/karat/adapters/wallet"
	"github.com/layer-3/karat/config"
	"github.com/layer-3/karat/internal/cardano"
	"github.com/layer-3/karat/service"
	transport "github.com/layer-3/karat/transport/http"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("app", "karat").Logger()

	cfg := config.FromEnv()
	if cfg.SignerSeed == "" {
		log.Fatal().Msg("KARAT_SIGNER_SEED is required")
	}
	if cfg.PoolAddress == "" {
		log.Fatal().Msg("KARAT_POOL_ADDRESS is required")
	}

	// Session signing key. Ephemeral by design: restarting the service
	// invalidates outstanding sessions, which wallets re-establish with
	// one challenge round-trip.
	sessionKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to generate session key")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse Redis URL")
	}
	redisClient := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	issuanceLedger, err := ledger.NewMongoLedger(ctx, mongoClient.Database(cfg.MongoDatabase).Collection("issuances"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize issuance ledger")
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	signer, err := wallet.NewEd25519SignerFromSeed(cfg.SignerSeed)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signer key")
	}
	policy := cardano.NewNativeScript(signer.PublicKey())
	log.Info().Str("policy_id", cardano.PolicyID(policy)).Msg("minting policy loaded")

	provider := chain.NewKoiosProvider(cfg.KoiosURL, cfg.ProviderTimeout, log)
	eventPub := events.NewWatermillPublisher(publisher)
	nonces := store.NewRedisNonceStore(redisClient, cfg.NonceTTL)
	revocations := store.NewRedisStore(redisClient)
	jwtTokenizer := tokenizer.NewJWTTokenizer(sessionKey)

	authService := service.NewAuthService(nonces, jwtTokenizer, revocations, eventPub, log)
	mintService := service.NewMintService(provider, signer, issuanceLedger, eventPub, policy, cfg.PoolAddress, log)
	rewardService := service.NewRewardService(provider, signer, issuanceLedger, eventPub, cfg.PoolAddress, log)

	router := transport.SetupRouter(authService, mintService, rewardService)

	log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
