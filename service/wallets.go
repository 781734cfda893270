package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// ConnectWallet attaches an unverified wallet to accountID. Connecting a wallet the
// account already owns returns the existing link.
func (s *AuthService) ConnectWallet(ctx context.Context, accountID string, identity core.WalletIdentity) (*core.LinkedWallet, error) {
	canonical, err := core.NormalizeAddress(identity.Address, identity.Network)
	if err != nil {
		return nil, err
	}
	identity.Address = canonical
	if identity.WalletType == "" {
		identity.WalletType = core.WalletTypeFor(identity.Network)
	}
	if identity.WalletType != core.WalletTypeFor(identity.Network) {
		return nil, core.Errorf(core.KindInvalidAddress, "wallet type %q is not supported on %s", identity.WalletType, identity.Network)
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	existing, err := s.accounts.FindWallet(ctx, identity.Address, identity.Network)
	if err == nil {
		if existing.AccountID != accountID {
			return nil, core.ErrWalletConflict
		}
		return existing, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, s.storageErr("find wallet", err)
	}

	now := s.opts.Now()
	wallet := &core.LinkedWallet{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Identity:  identity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.CreateWallet(ctx, wallet); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, core.ErrWalletConflict
		}
		return nil, s.storageErr("create wallet", err)
	}

	s.log.Infow("wallet connected", "account", accountID, "wallet", wallet.ID, "network", identity.Network)
	return wallet, nil
}

// ListWallets returns the wallets linked to accountID
func (s *AuthService) ListWallets(ctx context.Context, accountID string) ([]core.LinkedWallet, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	wallets, err := s.accounts.ListWallets(ctx, accountID)
	if err != nil {
		return nil, s.storageErr("list wallets", err)
	}
	return wallets, nil
}

// VerifyLink marks a linked wallet verified. proof must come from a link challenge
// issued for the same wallet and account.
func (s *AuthService) VerifyLink(ctx context.Context, proof *core.VerifiedWallet, walletID, accountID string) (*core.LinkedWallet, error) {
	if proof == nil || proof.Challenge.Purpose != core.PurposeLink || !proof.Challenge.Consumed {
		return nil, core.Errorf(core.KindNotAuthorized, "wallet verification requires a verified link challenge")
	}
	if proof.Challenge.WalletID != walletID || proof.Challenge.AccountID != accountID {
		return nil, core.ErrNotAuthorized
	}

	wallet, err := s.ownedWallet(ctx, accountID, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.Identity.Address != proof.Identity.Address || wallet.Identity.Network != proof.Identity.Network {
		return nil, core.ErrNotAuthorized
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	now := s.opts.Now()
	if err := s.accounts.MarkWalletVerified(ctx, walletID, now); err != nil {
		return nil, s.storageErr("mark wallet verified", err)
	}
	wallet.IsVerified = true
	wallet.VerifiedAt = &now
	wallet.UpdatedAt = now

	if err := s.eventPub.PublishWalletVerified(ctx, accountID, walletID); err != nil {
		s.log.Warnw("failed to publish wallet verified event", "wallet", walletID, "error", err)
	}
	return wallet, nil
}

// VerifyWallet runs the link verification end to end: it checks ownership, verifies the
// signed challenge and marks the wallet verified
func (s *AuthService) VerifyWallet(ctx context.Context, accountID, walletID, message, signature string) (*core.LinkedWallet, error) {
	wallet, err := s.ownedWallet(ctx, accountID, walletID)
	if err != nil {
		return nil, err
	}

	proof, err := s.Verify(ctx, VerifyRequest{
		Purpose:   core.PurposeLink,
		Address:   wallet.Identity.Address,
		Network:   wallet.Identity.Network,
		Message:   message,
		Signature: signature,
	})
	if err != nil {
		return nil, err
	}

	return s.VerifyLink(ctx, proof, walletID, accountID)
}

func (s *AuthService) ownedWallet(ctx context.Context, accountID, walletID string) (*core.LinkedWallet, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	wallet, err := s.accounts.GetWallet(ctx, walletID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, core.Errorf(core.KindNotAuthorized, "wallet not found")
	}
	if err != nil {
		return nil, s.storageErr("load wallet", err)
	}
	if wallet.AccountID != accountID {
		return nil, core.Errorf(core.KindNotAuthorized, "wallet not found")
	}
	return wallet, nil
}
