package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	TopicIdentityCreated = "walletauth.identity_created"
	TopicLogin           = "walletauth.login"
)

// IdentityCreatedEvent is published when a wallet logs in for the first time
type IdentityCreatedEvent struct {
	IdentityID string    `json:"identity_id"`
	Address    string    `json:"address"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoginEvent is published for every issued session grant
type LoginEvent struct {
	IdentityID string    `json:"identity_id"`
	Address    string    `json:"address"`
	SessionID  string    `json:"session_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishIdentityCreated publishes an identity created event
func (p *WatermillPublisher) PublishIdentityCreated(ctx context.Context, identity core.Identity) error {
	return p.publish(ctx, TopicIdentityCreated, identity.ID, IdentityCreatedEvent{
		IdentityID: identity.ID,
		Address:    identity.WalletAddress,
		Role:       string(identity.Role),
		CreatedAt:  identity.CreatedAt,
	})
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, grant core.SessionGrant) error {
	return p.publish(ctx, TopicLogin, grant.ID, LoginEvent{
		IdentityID: grant.IdentityID,
		Address:    grant.Address,
		SessionID:  grant.ID,
		IssuedAt:   grant.IssuedAt,
		ExpiresAt:  grant.ExpiresAt,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, id string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops all events
type NopPublisher struct{}

func (NopPublisher) PublishIdentityCreated(context.Context, core.Identity) error { return nil }
func (NopPublisher) PublishLogin(context.Context, core.SessionGrant) error       { return nil }

var (
	_ ports.EventPublisher = (*WatermillPublisher)(nil)
	_ ports.EventPublisher = NopPublisher{}
)
