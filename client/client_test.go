package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
	"github.com/layer-3/walletauth/signer"
	transport "github.com/layer-3/walletauth/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := tokenizer.GenerateKey()
	require.NoError(t, err)
	svc := service.NewAuthService(service.Deps{
		Tokenizer:  tokenizer.NewJWTTokenizer(key),
		Store:      store.NewMemoryStore(),
		Challenges: store.NewMemoryChallengeStore(nil),
		Accounts:   store.NewMemoryAccountStore(),
		Verifier:   signature.NewVerifier(),
		Events:     events.NopPublisher{},
	}, service.DefaultOptions())

	srv := httptest.NewServer(transport.SetupRouter(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func newSigner(t *testing.T, network core.Network) *signer.KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return signer.NewKeySigner(key, network)
}

type lockedWallet struct{}

func (lockedWallet) RequestAccounts(context.Context) (signer.AccountsResult, error) {
	return signer.ParseAccounts([]byte(`{"code": 4001, "message": "User rejected the request."}`)), nil
}

func (lockedWallet) Sign(context.Context, string) (string, error) {
	return "", errors.New("locked")
}

func TestLoginAndLinkFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	sessions := NewSessionHolder()
	c := New(srv.URL, sessions, DefaultOptions())

	tron := newSigner(t, core.NetworkTron)
	session, err := c.Login(ctx, tron, core.NetworkTron)
	require.NoError(t, err)
	address, err := tron.Address()
	require.NoError(t, err)
	assert.Equal(t, address, session.WalletAddress)
	assert.Equal(t, session, sessions.Get())
	assert.False(t, sessions.IsAdmin())

	again, err := c.Login(ctx, tron, core.NetworkTron)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, again.AccountID)

	eth := newSigner(t, core.NetworkEthereum)
	ethAddress, err := eth.Address()
	require.NoError(t, err)
	wallet, err := c.ConnectWallet(ctx, ethAddress, core.NetworkEthereum)
	require.NoError(t, err)
	assert.False(t, wallet.IsVerified)

	// signing with the wrong key must not verify the wallet
	err = c.VerifyWallet(ctx, wallet.ID, newSigner(t, core.NetworkEthereum))
	assert.True(t, errors.Is(err, core.ErrSignatureInvalid))

	require.NoError(t, c.VerifyWallet(ctx, wallet.ID, eth))

	wallets, err := c.Wallets(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	for _, w := range wallets {
		assert.True(t, w.IsVerified)
		assert.NotNil(t, w.VerifiedAt)
	}

	refreshed, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, again.RefreshToken, refreshed.RefreshToken)

	require.NoError(t, c.Logout(ctx))
	assert.Nil(t, sessions.Get())

	_, err = c.Wallets(ctx)
	assert.True(t, errors.Is(err, core.ErrNotAuthorized))
}

func TestLoginErrors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := New(srv.URL, NewSessionHolder(), DefaultOptions())

	_, err := c.Login(ctx, lockedWallet{}, core.NetworkTron)
	assert.True(t, errors.Is(err, core.ErrInvalidAddress))
	assert.Contains(t, err.Error(), "User rejected")

	// ethereum login is disabled by default
	_, err = c.Login(ctx, newSigner(t, core.NetworkEthereum), core.NetworkEthereum)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.True(t, errors.Is(err, core.ErrInvalidAddress))
}

func TestRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"storage_unavailable","message":"storage unavailable, try again","retryable":true}}`))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Backoff = time.Millisecond
	c := New(srv.URL, NewSessionHolder(), opts)

	_, err := c.AuthMessage(context.Background(), "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", core.NetworkTron)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Retryable)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))
	assert.Equal(t, int32(opts.RetryCount+1), atomic.LoadInt32(&hits))
}

func TestSessionHolder(t *testing.T) {
	h := NewSessionHolder()
	assert.Nil(t, h.Get())

	s := &Session{AccessToken: "a", IsAdmin: true}
	h.Set(s)
	s.AccessToken = "mutated"
	assert.Equal(t, "a", h.Get().AccessToken)
	assert.True(t, h.IsAdmin())

	h.Clear()
	assert.Nil(t, h.Get())
	assert.False(t, h.IsAdmin())
}
