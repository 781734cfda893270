package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	s := NewSQLStore(bun.NewDB(sqldb, sqlitedialect.New()))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateTables(context.Background()))
	// idempotent
	require.NoError(t, s.CreateTables(context.Background()))
	return s
}

func accountStores(t *testing.T) map[string]ports.AccountStore {
	return map[string]ports.AccountStore{
		"memory": NewMemoryAccountStore(),
		"sql":    newSQLiteStore(t),
	}
}

func newAccount(address string) (*core.Account, *core.LinkedWallet) {
	now := time.Now().UTC().Truncate(time.Second)
	account := &core.Account{
		ID:         uuid.NewString(),
		Username:   "user_" + address[:8],
		AuthMethod: "wallet",
		IsActive:   true,
		CreatedAt:  now,
	}
	wallet := &core.LinkedWallet{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Identity: core.WalletIdentity{
			Address:    address,
			Network:    core.NetworkTron,
			WalletType: core.WalletTypeTronLink,
		},
		IsVerified: true,
		VerifiedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return account, wallet
}

const (
	addrA = "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"
	addrB = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
)

func TestAccountStoreLoginBootstrap(t *testing.T) {
	ctx := context.Background()

	for name, s := range accountStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.FindWallet(ctx, addrA, core.NetworkTron)
			assert.ErrorIs(t, err, ports.ErrNotFound)

			account, wallet := newAccount(addrA)
			require.NoError(t, s.CreateAccountWithWallet(ctx, account, wallet))

			got, err := s.FindWallet(ctx, addrA, core.NetworkTron)
			require.NoError(t, err)
			assert.Equal(t, wallet.ID, got.ID)
			assert.Equal(t, account.ID, got.AccountID)
			assert.Equal(t, wallet.Identity, got.Identity)
			assert.True(t, got.IsVerified)
			require.NotNil(t, got.VerifiedAt)

			_, err = s.FindWallet(ctx, addrA, core.NetworkEthereum)
			assert.ErrorIs(t, err, ports.ErrNotFound)

			gotAccount, err := s.GetAccount(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, account.Username, gotAccount.Username)
			assert.True(t, gotAccount.IsActive)

			_, err = s.GetAccount(ctx, "missing")
			assert.ErrorIs(t, err, ports.ErrNotFound)

			// the same wallet cannot bootstrap a second account
			other, dup := newAccount(addrA)
			assert.ErrorIs(t, s.CreateAccountWithWallet(ctx, other, dup), ports.ErrConflict)
			_, err = s.GetAccount(ctx, other.ID)
			assert.ErrorIs(t, err, ports.ErrNotFound)
		})
	}
}

func TestAccountStoreLinkedWallets(t *testing.T) {
	ctx := context.Background()

	for name, s := range accountStores(t) {
		t.Run(name, func(t *testing.T) {
			account, wallet := newAccount(addrA)
			require.NoError(t, s.CreateAccountWithWallet(ctx, account, wallet))

			_, linked := newAccount(addrB)
			linked.AccountID = account.ID
			linked.IsVerified = false
			linked.VerifiedAt = nil
			linked.CreatedAt = linked.CreatedAt.Add(time.Second)
			linked.UpdatedAt = linked.CreatedAt
			require.NoError(t, s.CreateWallet(ctx, linked))
			assert.ErrorIs(t, s.CreateWallet(ctx, linked), ports.ErrConflict)

			got, err := s.GetWallet(ctx, linked.ID)
			require.NoError(t, err)
			assert.False(t, got.IsVerified)
			assert.Nil(t, got.VerifiedAt)

			wallets, err := s.ListWallets(ctx, account.ID)
			require.NoError(t, err)
			require.Len(t, wallets, 2)
			assert.Equal(t, wallet.ID, wallets[0].ID)
			assert.Equal(t, linked.ID, wallets[1].ID)

			wallets, err = s.ListWallets(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, wallets)

			at := time.Now().UTC().Truncate(time.Second)
			require.NoError(t, s.MarkWalletVerified(ctx, linked.ID, at))
			got, err = s.GetWallet(ctx, linked.ID)
			require.NoError(t, err)
			assert.True(t, got.IsVerified)
			require.NotNil(t, got.VerifiedAt)
			assert.WithinDuration(t, at, *got.VerifiedAt, time.Second)

			assert.ErrorIs(t, s.MarkWalletVerified(ctx, "missing", at), ports.ErrNotFound)
			_, err = s.GetWallet(ctx, "missing")
			assert.ErrorIs(t, err, ports.ErrNotFound)
		})
	}
}

func TestAccountStoreAdminWallets(t *testing.T) {
	ctx := context.Background()

	for name, s := range accountStores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := s.IsAdminWallet(ctx, addrA, core.NetworkTron)
			require.NoError(t, err)
			assert.False(t, ok)

			added := time.Now().UTC().Truncate(time.Second)
			require.NoError(t, s.SaveAdminWallet(ctx, &core.AdminWallet{
				Address: addrA, Network: core.NetworkTron, IsActive: true, Notes: "ops", AddedAt: added,
			}))

			ok, err = s.IsAdminWallet(ctx, addrA, core.NetworkTron)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.IsAdminWallet(ctx, addrA, core.NetworkEthereum)
			require.NoError(t, err)
			assert.False(t, ok)

			// deactivate keeps the original added time
			update := &core.AdminWallet{Address: addrA, Network: core.NetworkTron, IsActive: false, AddedAt: added.Add(time.Hour)}
			require.NoError(t, s.SaveAdminWallet(ctx, update))
			assert.WithinDuration(t, added, update.AddedAt, time.Second)

			ok, err = s.IsAdminWallet(ctx, addrA, core.NetworkTron)
			require.NoError(t, err)
			assert.False(t, ok)

			admins, err := s.ListAdminWallets(ctx)
			require.NoError(t, err)
			require.Len(t, admins, 1)
			assert.False(t, admins[0].IsActive)
		})
	}
}
