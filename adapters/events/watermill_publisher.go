package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/ports"
)

const (
	logoutTopic   = "karat.logout"
	issuanceTopic = "karat.issuance"
)

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// IssuanceEvent notifies other instances and the surrounding application
// that an on-chain action was recorded.
type IssuanceEvent struct {
	PolicyID  string    `json:"policy_id,omitempty"`
	AssetName string    `json:"asset_name,omitempty"`
	TxHash    string    `json:"tx_hash"`
	Creator   string    `json:"creator"`
	Recipient string    `json:"recipient"`
	CreatedAt time.Time `json:"created_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(logoutTopic, tokenID, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

// PublishIssuance publishes an issuance event keyed by transaction hash.
func (p *WatermillPublisher) PublishIssuance(ctx context.Context, rec core.IssuanceRecord) error {
	return p.publish(issuanceTopic, rec.TxHash, IssuanceEvent{
		PolicyID:  rec.PolicyID,
		AssetName: rec.AssetName,
		TxHash:    rec.TxHash,
		Creator:   rec.Creator,
		Recipient: rec.Recipient,
		CreatedAt: rec.CreatedAt,
	})
}

func (p *WatermillPublisher) publish(topic, id string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
