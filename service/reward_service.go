package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/internal/cardano"
	"github.com/layer-3/karat/ports"
)

const defaultRewardFee = 180_000

// lovelacePerCoin converts API-facing coin amounts to lovelace.
var lovelacePerCoin = decimal.New(1, 6)

// RewardService pays out pool rewards as plain value transfers from the
// configured pool address.
type RewardService struct {
	provider ports.ChainProvider
	signer   ports.WalletSigner
	ledger   ports.IssuanceLedger
	eventPub ports.EventPublisher
	builder  *cardano.TxBuilder
	log      zerolog.Logger

	poolAddress string
	fee         uint64
}

// NewRewardService creates a reward service paying from poolAddress.
func NewRewardService(
	provider ports.ChainProvider,
	signer ports.WalletSigner,
	ledger ports.IssuanceLedger,
	eventPub ports.EventPublisher,
	poolAddress string,
	log zerolog.Logger,
) *RewardService {
	return &RewardService{
		provider:    provider,
		signer:      signer,
		ledger:      ledger,
		eventPub:    eventPub,
		builder:     cardano.NewTxBuilder(nil),
		log:         log.With().Str("service", "reward").Logger(),
		poolAddress: poolAddress,
		fee:         defaultRewardFee,
	}
}

// PayReward transfers amount (in whole coins) from the pool to recipient
// and records the payout keyed by transaction hash.
func (s *RewardService) PayReward(ctx context.Context, recipient string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("reward amount must be positive, got %s", amount)
	}
	lovelace := amount.Mul(lovelacePerCoin)
	if !lovelace.IsInteger() {
		return "", fmt.Errorf("reward amount %s is below lovelace precision", amount)
	}
	payout := uint64(lovelace.IntPart())

	if _, err := cardano.ParseAddress(recipient); err != nil {
		return "", fmt.Errorf("recipient address: %w", err)
	}

	inputs, err := s.selectInputs(ctx, payout+s.fee)
	if err != nil {
		return "", err
	}

	tx, err := s.builder.Build(
		inputs,
		nil,
		[]core.TxOutput{{Address: recipient, Value: core.Value{core.Lovelace: payout}}},
		s.poolAddress,
		s.fee,
	)
	if err != nil {
		return "", err
	}

	signed, err := s.signer.SignTx(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("sign reward transaction: %w", err)
	}

	txHash, err := s.provider.Submit(ctx, signed)
	if err != nil {
		return "", err
	}

	rec := core.IssuanceRecord{
		TxHash:    txHash,
		Creator:   s.poolAddress,
		Recipient: recipient,
		CreatedAt: time.Now(),
	}
	if err := s.ledger.Record(ctx, rec); err != nil {
		return "", fmt.Errorf("record reward payout (tx %s): %w", txHash, err)
	}

	if err := s.eventPub.PublishIssuance(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("tx", txHash).Msg("failed to publish payout event")
	}

	s.log.Info().Str("tx", txHash).Str("recipient", recipient).Uint64("lovelace", payout).Msg("reward paid")
	return txHash, nil
}

// selectInputs greedily takes the largest pool outputs until the target is
// covered. Largest-first keeps the input count, and with it the real fee,
// small.
func (s *RewardService) selectInputs(ctx context.Context, target uint64) ([]core.UTxO, error) {
	utxos, err := s.provider.UTxOsAt(ctx, s.poolAddress)
	if err != nil {
		return nil, err
	}

	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].Value.Coin() != utxos[j].Value.Coin() {
			return utxos[i].Value.Coin() > utxos[j].Value.Coin()
		}
		if utxos[i].Ref.TxHash != utxos[j].Ref.TxHash {
			return utxos[i].Ref.TxHash < utxos[j].Ref.TxHash
		}
		return utxos[i].Ref.Index < utxos[j].Ref.Index
	})

	var selected []core.UTxO
	var total uint64
	for _, u := range utxos {
		selected = append(selected, u)
		total += u.Value.Coin()
		if total >= target {
			return selected, nil
		}
	}
	return nil, fmt.Errorf("pool holds %d lovelace, payout needs %d: %w", total, target, core.ErrInsufficientFunds)
}
