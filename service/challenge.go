package service

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// VerifyRequest is a signed answer to a challenge
type VerifyRequest struct {
	Purpose   core.Purpose
	Address   string
	Network   core.Network
	Message   string
	Signature string
}

// IssueChallenge creates a login challenge for address, replacing any outstanding one
func (s *AuthService) IssueChallenge(ctx context.Context, address string, network core.Network) (*core.Challenge, error) {
	if !s.loginAllowed(network) {
		return nil, core.Errorf(core.KindInvalidAddress, "login with %s wallets is not supported", network)
	}

	canonical, err := core.NormalizeAddress(address, network)
	if err != nil {
		return nil, err
	}

	return s.putChallenge(ctx, &core.Challenge{
		Purpose: core.PurposeLogin,
		Address: canonical,
		Network: network,
	})
}

// IssueLinkChallenge creates a challenge proving control of a wallet linked to accountID
func (s *AuthService) IssueLinkChallenge(ctx context.Context, accountID, walletID string) (*core.Challenge, error) {
	wallet, err := s.ownedWallet(ctx, accountID, walletID)
	if err != nil {
		return nil, err
	}

	return s.putChallenge(ctx, &core.Challenge{
		Purpose:   core.PurposeLink,
		Address:   wallet.Identity.Address,
		Network:   wallet.Identity.Network,
		WalletID:  wallet.ID,
		AccountID: accountID,
	})
}

func (s *AuthService) putChallenge(ctx context.Context, challenge *core.Challenge) (*core.Challenge, error) {
	nonce, err := core.NewNonce()
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	challenge.ID = uuid.New().String()
	challenge.Nonce = nonce
	challenge.Message = core.ChallengeMessage(challenge.Purpose, nonce)
	challenge.IssuedAt = now
	challenge.ExpiresAt = now.Add(s.opts.ChallengeTTL)

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	// Kept past expiry so late answers are told the challenge expired
	if err := s.challenges.Put(ctx, challenge, 2*s.opts.ChallengeTTL); err != nil {
		return nil, s.storageErr("store challenge", err)
	}

	s.log.Debugw("challenge issued", "purpose", challenge.Purpose, "network", challenge.Network, "address", challenge.Address)
	return challenge, nil
}

// Verify checks a signed challenge and consumes it. The returned proof is the only way
// into LoginOrRegister and VerifyLink.
func (s *AuthService) Verify(ctx context.Context, req VerifyRequest) (*core.VerifiedWallet, error) {
	canonical, err := core.NormalizeAddress(req.Address, req.Network)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	challenge, err := s.challenges.Get(ctx, req.Purpose, req.Network, canonical)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, core.ErrChallengeNotFound
		}
		return nil, s.storageErr("load challenge", err)
	}

	if challenge.Consumed {
		return nil, core.ErrReplayDetected
	}
	if challenge.Expired(s.opts.Now()) {
		return nil, core.ErrChallengeExpired
	}
	if req.Message != challenge.Message {
		return nil, core.ErrMessageMismatch
	}

	payload, err := hex.DecodeString(core.EncodePayload(challenge.Message))
	if err != nil {
		return nil, core.Wrap(core.KindMessageMismatch, err)
	}
	if err := s.verifier.VerifySignature(challenge.Network, challenge.Address, payload, req.Signature); err != nil {
		s.log.Infow("signature rejected", "network", challenge.Network, "address", challenge.Address, "error", err)
		if core.KindOf(err) == "" {
			return nil, core.Wrap(core.KindSignatureInvalid, err)
		}
		return nil, err
	}

	// The verifier may have been slow, an expired challenge is never consumed
	if challenge.Expired(s.opts.Now()) {
		return nil, core.ErrChallengeExpired
	}

	if err := s.challenges.Consume(ctx, challenge); err != nil {
		switch {
		case errors.Is(err, ports.ErrConsumed):
			return nil, core.ErrReplayDetected
		case errors.Is(err, ports.ErrNotFound):
			// Replaced by a newer challenge while the signature was checked
			return nil, core.ErrChallengeNotFound
		}
		return nil, s.storageErr("consume challenge", err)
	}
	challenge.Consumed = true

	return &core.VerifiedWallet{
		Challenge: *challenge,
		Identity: core.WalletIdentity{
			Address:    challenge.Address,
			Network:    challenge.Network,
			WalletType: core.WalletTypeFor(challenge.Network),
		},
	}, nil
}
