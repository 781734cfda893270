package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/walletauth/ports"
)

const (
	TopicLogin          = "walletauth.login"
	TopicLogout         = "walletauth.logout"
	TopicWalletVerified = "walletauth.wallet_verified"
)

// LoginEvent is published after a successful wallet login
type LoginEvent struct {
	AccountID string    `json:"account_id"`
	Address   string    `json:"address"`
	Created   bool      `json:"created"`
	At        time.Time `json:"at"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// WalletVerifiedEvent is published when a linked wallet passes verification
type WalletVerifiedEvent struct {
	AccountID string    `json:"account_id"`
	WalletID  string    `json:"wallet_id"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, accountID, address string, created bool) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		AccountID: accountID,
		Address:   address,
		Created:   created,
		At:        time.Now().UTC(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

// PublishWalletVerified publishes a wallet verification event
func (p *WatermillPublisher) PublishWalletVerified(ctx context.Context, accountID, walletID string) error {
	return p.publish(ctx, TopicWalletVerified, WalletVerifiedEvent{
		AccountID: accountID,
		WalletID:  walletID,
		At:        time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event, used when event publishing is disabled
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string, bool) error { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error { return nil }
func (NopPublisher) PublishWalletVerified(context.Context, string, string) error { return nil }
