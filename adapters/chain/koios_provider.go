// Package chain implements the ChainProvider port against a Koios-style
// REST endpoint.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/internal/cardano"
	"github.com/layer-3/karat/ports"
)

// KoiosProvider queries and submits through the Koios HTTP API.
type KoiosProvider struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewKoiosProvider creates a provider for a Koios base URL such as
// "https://api.koios.rest/api/v1". Every request is bounded by timeout on
// top of whatever deadline the caller's context carries.
func NewKoiosProvider(baseURL string, timeout time.Duration, log zerolog.Logger) ports.ChainProvider {
	return &KoiosProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("adapter", "koios").Logger(),
	}
}

type utxoRow struct {
	TxHash  string `json:"tx_hash"`
	TxIndex uint32 `json:"tx_index"`
	Value   string `json:"value"`
	AssetList []struct {
		PolicyID  string `json:"policy_id"`
		AssetName string `json:"asset_name"`
		Quantity  string `json:"quantity"`
	} `json:"asset_list"`
	InlineDatum *struct {
		Bytes string `json:"bytes"`
	} `json:"inline_datum"`
}

// UTxOsAt returns the current unspent outputs at address.
func (p *KoiosProvider) UTxOsAt(ctx context.Context, address string) ([]core.UTxO, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"_addresses": []string{address},
		"_extended":  true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/address_utxos", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, mapTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("address_utxos returned %d: %s", resp.StatusCode, body)
	}

	var rows []utxoRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode address_utxos response: %w", err)
	}

	utxos := make([]core.UTxO, 0, len(rows))
	for _, row := range rows {
		coin, err := strconv.ParseUint(row.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad lovelace quantity %q: %w", row.Value, err)
		}
		value := core.Value{core.Lovelace: coin}
		for _, a := range row.AssetList {
			qty, err := strconv.ParseUint(a.Quantity, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad asset quantity %q: %w", a.Quantity, err)
			}
			unit := a.PolicyID + "." + a.AssetName
			if _, _, err := cardano.SplitUnit(unit); err != nil {
				return nil, fmt.Errorf("bad asset unit in provider response: %w", err)
			}
			value[unit] = qty
		}

		var datum []byte
		if row.InlineDatum != nil && row.InlineDatum.Bytes != "" {
			datum, err = hex.DecodeString(row.InlineDatum.Bytes)
			if err != nil {
				return nil, fmt.Errorf("bad inline datum hex: %w", err)
			}
		}

		utxos = append(utxos, core.UTxO{
			Ref:     core.UTxORef{TxHash: row.TxHash, Index: row.TxIndex},
			Address: address,
			Value:   value,
			Datum:   datum,
		})
	}

	return utxos, nil
}

// Submit sends the signed transaction CBOR and returns the accepted hash.
func (p *KoiosProvider) Submit(ctx context.Context, signedTx []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/submittx", bytes.NewReader(signedTx))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/cbor")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", mapTransportErr(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		hash := strings.Trim(strings.TrimSpace(string(body)), `"`)
		return hash, nil
	case resp.StatusCode == http.StatusBadRequest:
		// The node rejected the transaction itself. The common case is a
		// concurrently spent input, which callers handle by re-selecting.
		p.log.Warn().Int("status", resp.StatusCode).Bytes("body", body).Msg("submission rejected")
		return "", fmt.Errorf("%s: %w", body, core.ErrSubmissionRejected)
	default:
		return "", fmt.Errorf("submittx returned %d: %s", resp.StatusCode, body)
	}
}

func mapTransportErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%v: %w", err, core.ErrProviderTimeout)
	}
	return err
}
