package store

import (
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/uptrace/bun"
)

type accountModel struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID         string    `bun:"id,pk"`
	Username   string    `bun:"username,notnull"`
	AuthMethod string    `bun:"auth_method,notnull"`
	IsActive   bool      `bun:"is_active,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

type linkedWalletModel struct {
	bun.BaseModel `bun:"table:linked_wallets,alias:w"`

	ID         string     `bun:"id,pk"`
	AccountID  string     `bun:"account_id,notnull"`
	Address    string     `bun:"address,notnull"`
	Network    string     `bun:"network,notnull"`
	WalletType string     `bun:"wallet_type,notnull"`
	IsVerified bool       `bun:"is_verified,notnull"`
	VerifiedAt *time.Time `bun:"verified_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

type adminWalletModel struct {
	bun.BaseModel `bun:"table:admin_wallets,alias:aw"`

	Address  string    `bun:"address,pk"`
	Network  string    `bun:"network,pk"`
	IsActive bool      `bun:"is_active,notnull"`
	Notes    string    `bun:"notes"`
	AddedAt  time.Time `bun:"added_at,notnull"`
}

func accountFromModel(m *accountModel) *core.Account {
	return &core.Account{
		ID:         m.ID,
		Username:   m.Username,
		AuthMethod: m.AuthMethod,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
}

func accountToModel(a *core.Account) *accountModel {
	return &accountModel{
		ID:         a.ID,
		Username:   a.Username,
		AuthMethod: a.AuthMethod,
		IsActive:   a.IsActive,
		CreatedAt:  a.CreatedAt.UTC(),
	}
}

func walletFromModel(m *linkedWalletModel) core.LinkedWallet {
	return core.LinkedWallet{
		ID:        m.ID,
		AccountID: m.AccountID,
		Identity: core.WalletIdentity{
			Address:    m.Address,
			Network:    core.Network(m.Network),
			WalletType: core.WalletType(m.WalletType),
		},
		IsVerified: m.IsVerified,
		VerifiedAt: m.VerifiedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func walletToModel(w *core.LinkedWallet) *linkedWalletModel {
	m := &linkedWalletModel{
		ID:         w.ID,
		AccountID:  w.AccountID,
		Address:    w.Identity.Address,
		Network:    string(w.Identity.Network),
		WalletType: string(w.Identity.WalletType),
		IsVerified: w.IsVerified,
		CreatedAt:  w.CreatedAt.UTC(),
		UpdatedAt:  w.UpdatedAt.UTC(),
	}
	if w.VerifiedAt != nil {
		at := w.VerifiedAt.UTC()
		m.VerifiedAt = &at
	}
	return m
}

func adminFromModel(m *adminWalletModel) core.AdminWallet {
	return core.AdminWallet{
		Address:  m.Address,
		Network:  core.Network(m.Network),
		IsActive: m.IsActive,
		Notes:    m.Notes,
		AddedAt:  m.AddedAt,
	}
}
