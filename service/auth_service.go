package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"go.uber.org/zap"
)

// Options tune the authentication flows
type Options struct {
	ChallengeTTL   time.Duration
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	StorageTimeout time.Duration

	// LoginNetworks lists the networks a wallet may log in with
	LoginNetworks []core.Network

	// AdminWallets are addresses granted administrative privilege regardless of the store
	AdminWallets []string

	Now func() time.Time
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		ChallengeTTL:   5 * time.Minute,
		AccessTTL:      5 * time.Minute,
		RefreshTTL:     5 * 24 * time.Hour, // 5 days
		StorageTimeout: 3 * time.Second,
		LoginNetworks:  []core.Network{core.NetworkTron},
		Now:            time.Now,
	}
}

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer  ports.Tokenizer
	store      ports.Store
	challenges ports.ChallengeStore
	accounts   ports.AccountStore
	verifier   ports.SignatureVerifier
	eventPub   ports.EventPublisher
	log        *zap.SugaredLogger

	opts Options
}

// Deps groups the adapters the service runs on
type Deps struct {
	Tokenizer  ports.Tokenizer
	Store      ports.Store
	Challenges ports.ChallengeStore
	Accounts   ports.AccountStore
	Verifier   ports.SignatureVerifier
	Events     ports.EventPublisher
	Logger     *zap.SugaredLogger
}

// NewAuthService creates a new authentication service
func NewAuthService(deps Deps, opts Options) *AuthService {
	defaults := DefaultOptions()
	if opts.ChallengeTTL <= 0 {
		opts.ChallengeTTL = defaults.ChallengeTTL
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaults.AccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaults.RefreshTTL
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = defaults.StorageTimeout
	}
	if len(opts.LoginNetworks) == 0 {
		opts.LoginNetworks = defaults.LoginNetworks
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &AuthService{
		tokenizer:  deps.Tokenizer,
		store:      deps.Store,
		challenges: deps.Challenges,
		accounts:   deps.Accounts,
		verifier:   deps.Verifier,
		eventPub:   deps.Events,
		log:        log,
		opts:       opts,
	}
}

// AccessTTL is the lifetime of issued access tokens
func (s *AuthService) AccessTTL() time.Duration {
	return s.opts.AccessTTL
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (*core.Session, error) {
	// Parse and validate the refresh token
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	// Check if the token has been invalidated
	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return nil, s.storageErr("check token invalidation", err)
	}
	if invalidated {
		return nil, core.ErrTokenInvalidated
	}

	account, err := s.accounts.GetAccount(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, s.storageErr("load account", err)
	}
	if !account.IsActive {
		return nil, core.ErrAccountDisabled
	}

	isAdmin, err := s.isAdmin(ctx, session.Address, session.Network)
	if err != nil {
		return nil, err
	}

	// Invalidate the old refresh token for the rest of its lifetime. Only one of several
	// concurrent refreshes of the same token wins.
	remainingTime := session.RefreshExpiry.Sub(s.opts.Now())
	won, err := s.store.InvalidateTokenOnce(ctx, session.RefreshID, remainingTime)
	if err != nil {
		return nil, s.storageErr("invalidate token", err)
	}
	if !won {
		return nil, core.ErrTokenInvalidated
	}

	return s.issueSession(account.ID, session.Address, session.Network, isAdmin)
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		// An expired token can no longer be used, nothing to invalidate
		if errors.Is(err, core.ErrTokenExpired) {
			return nil
		}
		return err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	remainingTime := session.RefreshExpiry.Sub(s.opts.Now())
	if remainingTime < time.Hour {
		// Keep the record a little longer to absorb clock skew
		remainingTime = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return s.storageErr("invalidate token", err)
	}

	// The token is already invalidated, a lost event is not fatal
	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		s.log.Warnw("failed to publish logout event", "address", session.Address, "error", err)
	}

	return nil
}

// ValidateAccessToken checks an access token and returns its session
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if s.opts.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// Access tokens die with the refresh token they were issued with
	if session.RefreshID != "" {
		ctx, cancel := s.storageCtx(ctx)
		defer cancel()

		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, s.storageErr("check token invalidation", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

func (s *AuthService) issueSession(accountID, address string, network core.Network, isAdmin bool) (*core.Session, error) {
	now := s.opts.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		AccountID:     accountID,
		Address:       address,
		Network:       network,
		IsAdmin:       isAdmin,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.opts.RefreshTTL),
		AccessExpiry:  now.Add(s.opts.AccessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	session.AccessToken = accessToken
	session.RefreshToken = refreshToken
	return session, nil
}

func (s *AuthService) loginAllowed(network core.Network) bool {
	for _, n := range s.opts.LoginNetworks {
		if n == network {
			return true
		}
	}
	return false
}

func (s *AuthService) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StorageTimeout)
}

func (s *AuthService) storageErr(op string, err error) error {
	s.log.Errorw("storage failure", "op", op, "error", err)
	return core.StorageUnavailable(fmt.Errorf("%s: %w", op, err))
}

func usernameFor(address string) string {
	name := strings.TrimPrefix(address, "0x")
	if len(name) > 8 {
		name = name[:8]
	}
	return "user_" + name
}
