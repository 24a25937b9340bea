package ports

import (
	"context"

	"github.com/layer-3/karat/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishIssuance(ctx context.Context, rec core.IssuanceRecord) error
}
