package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/internal/cardano"
	"github.com/layer-3/karat/ports"
)

// defaultMintFee is the flat fee reserved out of the nominated input.
// Interactive wallets re-estimate before signing; the custodial path keeps
// a fixed reserve well above current network fees.
const defaultMintFee = 200_000

// mintOutputLovelace is the coin that accompanies the minted asset to the
// recipient; the chain requires a minimum coin value on every output.
const mintOutputLovelace = 2_000_000

// MintResult is what a successful (or previously completed) mint returns.
type MintResult struct {
	TxHash    string
	PolicyID  string
	AssetUnit string
}

// MintService runs the issuance pipeline: select input, encode datum,
// build, sign, submit, record. Mints are funded from the service wallet:
// the custodial signer can only witness inputs held by its own payment
// credential, so every spent input must live at fundingAddress.
type MintService struct {
	provider ports.ChainProvider
	signer   ports.WalletSigner
	ledger   ports.IssuanceLedger
	eventPub ports.EventPublisher
	builder  *cardano.TxBuilder
	log      zerolog.Logger

	fundingAddress string
	fee            uint64
}

// NewMintService creates a mint service issuing under policy, spending
// from the service wallet at fundingAddress.
func NewMintService(
	provider ports.ChainProvider,
	signer ports.WalletSigner,
	ledger ports.IssuanceLedger,
	eventPub ports.EventPublisher,
	policy cardano.Script,
	fundingAddress string,
	log zerolog.Logger,
) *MintService {
	return &MintService{
		provider:       provider,
		signer:         signer,
		ledger:         ledger,
		eventPub:       eventPub,
		builder:        cardano.NewTxBuilder(policy),
		log:            log.With().Str("service", "mint").Logger(),
		fundingAddress: fundingAddress,
		fee:            defaultMintFee,
	}
}

// Mint issues one asset to the requester, funded by the service-wallet
// output req.UTxO nominates. The operation is idempotent on (policy, asset
// name): a retry after a crash between submission and recording returns
// the recorded transaction instead of minting twice.
func (s *MintService) Mint(ctx context.Context, req core.MintRequest) (*MintResult, error) {
	policyID := s.builder.PolicyID()
	unit := cardano.AssetUnit(policyID, req.AssetName)
	key := core.IssuanceRecord{PolicyID: policyID, AssetName: req.AssetName}.Key()

	if existing, err := s.ledger.Lookup(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.Creator != req.Requester {
			return nil, fmt.Errorf("asset %q already issued to another wallet: %w", req.AssetName, core.ErrIssuanceConflict)
		}
		s.log.Info().Str("asset", req.AssetName).Str("tx", existing.TxHash).Msg("mint already recorded")
		return &MintResult{TxHash: existing.TxHash, PolicyID: policyID, AssetUnit: unit}, nil
	}

	input, err := s.SelectUTxO(ctx, s.fundingAddress, req.UTxO)
	if err != nil {
		return nil, err
	}

	addr, err := cardano.ParseAddress(req.Requester)
	if err != nil {
		return nil, fmt.Errorf("requester address: %w", err)
	}
	creatorKeyHash, err := addr.PaymentKeyHash()
	if err != nil {
		return nil, fmt.Errorf("requester address: %w", err)
	}

	datum, err := cardano.MetadataDatum(req.AssetName, req.Metadata, creatorKeyHash)
	if err != nil {
		return nil, err
	}
	encodedDatum, err := cardano.EncodeDatum(datum)
	if err != nil {
		return nil, err
	}

	if input.Value.Coin() < s.fee+mintOutputLovelace {
		return nil, fmt.Errorf("nominated input holds %d lovelace, need %d: %w",
			input.Value.Coin(), s.fee+mintOutputLovelace, core.ErrInsufficientFunds)
	}

	// The minted asset goes to the requester with the certificate datum
	// attached; the rest of the funding input returns to the service wallet
	// as change.
	tx, err := s.builder.Build(
		[]core.UTxO{input},
		core.Value{unit: 1},
		[]core.TxOutput{{
			Address: req.Requester,
			Value:   core.Value{core.Lovelace: mintOutputLovelace, unit: 1},
			Datum:   encodedDatum,
		}},
		s.fundingAddress,
		s.fee,
	)
	if err != nil {
		return nil, err
	}

	signed, err := s.signer.SignTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("sign mint transaction: %w", err)
	}

	txHash, err := s.provider.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}

	rec := core.IssuanceRecord{
		PolicyID:  policyID,
		AssetName: req.AssetName,
		TxHash:    txHash,
		Creator:   req.Requester,
		Recipient: req.Requester,
		CreatedAt: time.Now(),
	}
	if err := s.ledger.Record(ctx, rec); err != nil {
		// The transaction is on chain; surfacing the record failure lets
		// the caller retry, which the ledger absorbs idempotently.
		return nil, fmt.Errorf("record issuance of %q (tx %s): %w", req.AssetName, txHash, err)
	}

	if err := s.eventPub.PublishIssuance(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("tx", txHash).Msg("failed to publish issuance event")
	}

	s.log.Info().Str("asset", req.AssetName).Str("tx", txHash).Str("creator", req.Requester).Msg("asset minted")
	return &MintResult{TxHash: txHash, PolicyID: policyID, AssetUnit: unit}, nil
}

// SelectUTxO fetches the current outputs at address and returns the one
// matching ref exactly. The snapshot is advisory; the chain's own
// double-spend rejection is the real gate.
func (s *MintService) SelectUTxO(ctx context.Context, address string, ref core.UTxORef) (core.UTxO, error) {
	utxos, err := s.provider.UTxOsAt(ctx, address)
	if err != nil {
		return core.UTxO{}, err
	}
	for _, u := range utxos {
		if u.Ref == ref {
			return u, nil
		}
	}
	return core.UTxO{}, fmt.Errorf("%s#%d not among %d outputs at %s: %w",
		ref.TxHash, ref.Index, len(utxos), address, core.ErrUTxONotFound)
}

// History lists the creator's recorded issuances, newest first.
func (s *MintService) History(ctx context.Context, creator string) ([]core.IssuanceRecord, error) {
	return s.ledger.ListByCreator(ctx, creator)
}

// PolicyID exposes the service's minting policy id.
func (s *MintService) PolicyID() string {
	return s.builder.PolicyID()
}
