package ports

import "context"

// EventPublisher publishes events to notify other instances and services
type EventPublisher interface {
	PublishLogin(ctx context.Context, accountID, address string, created bool) error
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishWalletVerified(ctx context.Context, accountID, walletID string) error
}
