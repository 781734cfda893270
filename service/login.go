package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const authMethodWallet = "wallet"

// LoginOrRegister opens a session for identity, which must be the wallet proven by proof.
// A wallet seen for the first time gets a new account with the wallet linked and verified.
func (s *AuthService) LoginOrRegister(ctx context.Context, proof *core.VerifiedWallet, identity core.WalletIdentity) (*core.Session, error) {
	if proof == nil || proof.Challenge.Purpose != core.PurposeLogin || !proof.Challenge.Consumed {
		return nil, core.Errorf(core.KindNotAuthorized, "login requires a verified login challenge")
	}

	canonical, err := core.NormalizeAddress(identity.Address, identity.Network)
	if err != nil {
		return nil, err
	}
	if canonical != proof.Identity.Address || identity.Network != proof.Identity.Network {
		return nil, core.Errorf(core.KindNotAuthorized, "wallet does not match the verified challenge")
	}
	identity.Address = canonical
	if identity.WalletType == "" {
		identity.WalletType = proof.Identity.WalletType
	}
	if identity.WalletType != core.WalletTypeFor(identity.Network) {
		return nil, core.Errorf(core.KindInvalidAddress, "wallet type %q is not supported on %s", identity.WalletType, identity.Network)
	}
	if !s.loginAllowed(identity.Network) {
		return nil, core.Errorf(core.KindInvalidAddress, "login with %s wallets is not supported", identity.Network)
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	account, created, err := s.findOrCreateAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, core.ErrAccountDisabled
	}

	isAdmin, err := s.isAdmin(ctx, identity.Address, identity.Network)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(account.ID, identity.Address, identity.Network, isAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishLogin(ctx, account.ID, identity.Address, created); err != nil {
		s.log.Warnw("failed to publish login event", "account", account.ID, "error", err)
	}
	s.log.Infow("wallet login", "account", account.ID, "address", identity.Address, "network", identity.Network, "created", created)

	return session, nil
}

func (s *AuthService) findOrCreateAccount(ctx context.Context, identity core.WalletIdentity) (*core.Account, bool, error) {
	wallet, err := s.accounts.FindWallet(ctx, identity.Address, identity.Network)
	switch {
	case err == nil:
		account, err := s.loadAccount(ctx, wallet.AccountID)
		return account, false, err
	case !errors.Is(err, ports.ErrNotFound):
		return nil, false, s.storageErr("find wallet", err)
	}

	now := s.opts.Now()
	account := &core.Account{
		ID:         uuid.New().String(),
		Username:   usernameFor(identity.Address),
		AuthMethod: authMethodWallet,
		IsActive:   true,
		CreatedAt:  now,
	}
	wallet = &core.LinkedWallet{
		ID:         uuid.New().String(),
		AccountID:  account.ID,
		Identity:   identity,
		IsVerified: true,
		VerifiedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.accounts.CreateAccountWithWallet(ctx, account, wallet)
	if errors.Is(err, ports.ErrConflict) {
		// Another login for the same wallet won the race
		existing, err := s.accounts.FindWallet(ctx, identity.Address, identity.Network)
		if err != nil {
			return nil, false, s.storageErr("find wallet", err)
		}
		account, err := s.loadAccount(ctx, existing.AccountID)
		return account, false, err
	}
	if err != nil {
		return nil, false, s.storageErr("create account", err)
	}

	return account, true, nil
}

func (s *AuthService) loadAccount(ctx context.Context, id string) (*core.Account, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, s.storageErr("load account", err)
	}
	return account, nil
}

// GetAccount returns the account a session belongs to
func (s *AuthService) GetAccount(ctx context.Context, id string) (*core.Account, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	account, err := s.accounts.GetAccount(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, core.ErrNotAuthorized
	}
	if err != nil {
		return nil, s.storageErr("load account", err)
	}
	return account, nil
}
