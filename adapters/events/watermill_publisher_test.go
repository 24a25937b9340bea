package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
)

func TestPublishLogout(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx := context.Background()
	messages, err := pubsub.Subscribe(ctx, "karat.logout")
	require.NoError(t, err)

	p := NewWatermillPublisher(pubsub)
	require.NoError(t, p.PublishLogout(ctx, "addr_test1xyz", "token-123"))

	select {
	case msg := <-messages:
		var event LogoutEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "addr_test1xyz", event.Address)
		assert.Equal(t, "token-123", event.TokenID)
		assert.Equal(t, "token-123", msg.UUID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no logout event received")
	}
}

func TestPublishIssuance(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx := context.Background()
	messages, err := pubsub.Subscribe(ctx, "karat.issuance")
	require.NoError(t, err)

	rec := core.IssuanceRecord{
		PolicyID:  strings.Repeat("ab", 28),
		AssetName: "cert-001",
		TxHash:    strings.Repeat("cd", 32),
		Creator:   "addr_test1creator",
		Recipient: "addr_test1creator",
		CreatedAt: time.Now(),
	}

	p := NewWatermillPublisher(pubsub)
	require.NoError(t, p.PublishIssuance(ctx, rec))

	select {
	case msg := <-messages:
		var event IssuanceEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, rec.TxHash, event.TxHash)
		assert.Equal(t, rec.AssetName, event.AssetName)
		assert.Equal(t, rec.Creator, event.Creator)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no issuance event received")
	}
}
