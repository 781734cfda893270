package ports

import (
	"context"
	"errors"
	"time"

	"github.com/layer-3/walletauth/core"
)

var (
	// ErrNotFound is returned by stores when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a uniqueness constraint would be violated
	ErrConflict = errors.New("record already exists")

	// ErrConsumed is returned by ChallengeStore.Consume for a challenge that was already used
	ErrConsumed = errors.New("challenge already consumed")
)

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)

	// InvalidateTokenOnce invalidates tokenID unless it already is. It reports false when
	// another caller got there first.
	InvalidateTokenOnce(ctx context.Context, tokenID string, expiry time.Duration) (bool, error)
}

// ChallengeStore keeps outstanding challenges keyed by purpose, network and address.
// Putting a challenge replaces any other challenge stored under the same key.
type ChallengeStore interface {
	// Put stores the challenge and keeps it for retain
	Put(ctx context.Context, challenge *core.Challenge, retain time.Duration) error

	// Get returns the challenge stored under the key or ErrNotFound
	Get(ctx context.Context, purpose core.Purpose, network core.Network, address string) (*core.Challenge, error)

	// Consume atomically marks the challenge as used. It fails with ErrConsumed if it was
	// already used and with ErrNotFound if it is gone or was replaced by a newer one.
	Consume(ctx context.Context, challenge *core.Challenge) error
}

// AccountStore persists accounts, linked wallets and the admin whitelist
type AccountStore interface {
	GetAccount(ctx context.Context, id string) (*core.Account, error)

	// CreateAccountWithWallet stores both records in one transaction.
	// It returns ErrConflict if the wallet is already linked.
	CreateAccountWithWallet(ctx context.Context, account *core.Account, wallet *core.LinkedWallet) error

	FindWallet(ctx context.Context, address string, network core.Network) (*core.LinkedWallet, error)
	GetWallet(ctx context.Context, id string) (*core.LinkedWallet, error)
	ListWallets(ctx context.Context, accountID string) ([]core.LinkedWallet, error)

	// CreateWallet returns ErrConflict if the wallet is already linked
	CreateWallet(ctx context.Context, wallet *core.LinkedWallet) error
	MarkWalletVerified(ctx context.Context, id string, at time.Time) error

	IsAdminWallet(ctx context.Context, address string, network core.Network) (bool, error)
	SaveAdminWallet(ctx context.Context, admin *core.AdminWallet) error
	ListAdminWallets(ctx context.Context) ([]core.AdminWallet, error)
}
