package service

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// IsAdmin reports whether address is whitelisted by configuration or by the store
func (s *AuthService) IsAdmin(ctx context.Context, address string, network core.Network) (bool, error) {
	canonical, err := core.NormalizeAddress(address, network)
	if err != nil {
		return false, err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.isAdmin(ctx, canonical, network)
}

func (s *AuthService) isAdmin(ctx context.Context, address string, network core.Network) (bool, error) {
	for _, entry := range s.opts.AdminWallets {
		if canonical, err := core.NormalizeAddress(entry, network); err == nil && canonical == address {
			return true, nil
		}
	}

	ok, err := s.accounts.IsAdminWallet(ctx, address, network)
	if err != nil {
		return false, s.storageErr("check admin wallet", err)
	}
	return ok, nil
}

// AddAdminWallet whitelists address as an administrator
func (s *AuthService) AddAdminWallet(ctx context.Context, address string, network core.Network, notes string) (*core.AdminWallet, error) {
	canonical, err := core.NormalizeAddress(address, network)
	if err != nil {
		return nil, err
	}

	admin := &core.AdminWallet{
		Address:  canonical,
		Network:  network,
		IsActive: true,
		Notes:    notes,
		AddedAt:  s.opts.Now(),
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	if err := s.accounts.SaveAdminWallet(ctx, admin); err != nil {
		return nil, s.storageErr("save admin wallet", err)
	}
	s.log.Infow("admin wallet added", "address", canonical, "network", network)
	return admin, nil
}

// ListAdminWallets returns the stored administrator whitelist
func (s *AuthService) ListAdminWallets(ctx context.Context) ([]core.AdminWallet, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	admins, err := s.accounts.ListAdminWallets(ctx)
	if err != nil {
		return nil, s.storageErr("list admin wallets", err)
	}
	return admins, nil
}
