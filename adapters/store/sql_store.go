package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// SQLStore implements AccountStore with bun
type SQLStore struct {
	db *bun.DB
}

// NewSQLStore wraps an open bun database
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenPostgres connects to Postgres with pgdriver
func OpenPostgres(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

var _ ports.AccountStore = (*SQLStore)(nil)

// CreateTables creates the schema if it does not exist yet
func (s *SQLStore) CreateTables(ctx context.Context) error {
	models := []interface{}{
		(*accountModel)(nil),
		(*linkedWalletModel)(nil),
		(*adminWalletModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*linkedWalletModel)(nil)).
		Index("linked_wallets_address_network_idx").
		Unique().
		IfNotExists().
		Column("address", "network").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create wallet index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*linkedWalletModel)(nil)).
		Index("linked_wallets_account_idx").
		IfNotExists().
		Column("account_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create account index: %w", err)
	}

	return nil
}

func (s *SQLStore) GetAccount(ctx context.Context, id string) (*core.Account, error) {
	var m accountModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return accountFromModel(&m), nil
}

func (s *SQLStore) CreateAccountWithWallet(ctx context.Context, account *core.Account, wallet *core.LinkedWallet) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := walletMustNotExist(ctx, tx, wallet); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(accountToModel(account)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		if _, err := tx.NewInsert().Model(walletToModel(wallet)).Exec(ctx); err != nil {
			return s.insertWalletError(ctx, wallet, err)
		}
		return nil
	})
}

func (s *SQLStore) FindWallet(ctx context.Context, address string, network core.Network) (*core.LinkedWallet, error) {
	var m linkedWalletModel
	err := s.db.NewSelect().
		Model(&m).
		Where("address = ?", address).
		Where("network = ?", string(network)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	w := walletFromModel(&m)
	return &w, nil
}

func (s *SQLStore) GetWallet(ctx context.Context, id string) (*core.LinkedWallet, error) {
	var m linkedWalletModel
	if err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	w := walletFromModel(&m)
	return &w, nil
}

func (s *SQLStore) ListWallets(ctx context.Context, accountID string) ([]core.LinkedWallet, error) {
	var models []linkedWalletModel
	err := s.db.NewSelect().
		Model(&models).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	wallets := make([]core.LinkedWallet, 0, len(models))
	for i := range models {
		wallets = append(wallets, walletFromModel(&models[i]))
	}
	return wallets, nil
}

func (s *SQLStore) CreateWallet(ctx context.Context, wallet *core.LinkedWallet) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := walletMustNotExist(ctx, tx, wallet); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(walletToModel(wallet)).Exec(ctx); err != nil {
			return s.insertWalletError(ctx, wallet, err)
		}
		return nil
	})
}

func (s *SQLStore) MarkWalletVerified(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	res, err := s.db.NewUpdate().
		Model((*linkedWalletModel)(nil)).
		Set("is_verified = ?", true).
		Set("verified_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify wallet: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *SQLStore) IsAdminWallet(ctx context.Context, address string, network core.Network) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*adminWalletModel)(nil)).
		Where("address = ?", address).
		Where("network = ?", string(network)).
		Where("is_active = ?", true).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check admin wallet: %w", err)
	}
	return exists, nil
}

func (s *SQLStore) SaveAdminWallet(ctx context.Context, admin *core.AdminWallet) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing adminWalletModel
		err := tx.NewSelect().
			Model(&existing).
			Where("address = ?", admin.Address).
			Where("network = ?", string(admin.Network)).
			Scan(ctx)
		switch {
		case err == nil:
			admin.AddedAt = existing.AddedAt
			_, err = tx.NewUpdate().
				Model((*adminWalletModel)(nil)).
				Set("is_active = ?", admin.IsActive).
				Set("notes = ?", admin.Notes).
				Where("address = ?", admin.Address).
				Where("network = ?", string(admin.Network)).
				Exec(ctx)
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.NewInsert().Model(&adminWalletModel{
				Address:  admin.Address,
				Network:  string(admin.Network),
				IsActive: admin.IsActive,
				Notes:    admin.Notes,
				AddedAt:  admin.AddedAt.UTC(),
			}).Exec(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to save admin wallet: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) ListAdminWallets(ctx context.Context) ([]core.AdminWallet, error) {
	var models []adminWalletModel
	if err := s.db.NewSelect().Model(&models).Order("address ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list admin wallets: %w", err)
	}

	admins := make([]core.AdminWallet, 0, len(models))
	for i := range models {
		admins = append(admins, adminFromModel(&models[i]))
	}
	return admins, nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func walletMustNotExist(ctx context.Context, tx bun.Tx, wallet *core.LinkedWallet) error {
	exists, err := tx.NewSelect().
		Model((*linkedWalletModel)(nil)).
		Where("address = ?", wallet.Identity.Address).
		Where("network = ?", string(wallet.Identity.Network)).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up wallet: %w", err)
	}
	if exists {
		return ports.ErrConflict
	}
	return nil
}

// insertWalletError reports a concurrent insert that hit the unique index as a conflict
func (s *SQLStore) insertWalletError(ctx context.Context, wallet *core.LinkedWallet, err error) error {
	if _, findErr := s.FindWallet(ctx, wallet.Identity.Address, wallet.Identity.Network); findErr == nil {
		return ports.ErrConflict
	}
	return fmt.Errorf("failed to insert wallet: %w", err)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}
