package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	events.NopPublisher

	mu       sync.Mutex
	logins   []bool
	verified []string
}

func (p *recordingPublisher) PublishLogin(_ context.Context, _, _ string, created bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, created)
	return nil
}

func (p *recordingPublisher) PublishWalletVerified(_ context.Context, _, walletID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified = append(p.verified, walletID)
	return nil
}

type env struct {
	svc      *AuthService
	clock    *clock
	accounts *store.MemoryAccountStore
	events   *recordingPublisher
}

func newEnv(t *testing.T, mutate ...func(*Deps, *Options)) *env {
	t.Helper()

	key, err := tokenizer.GenerateKey()
	require.NoError(t, err)

	clk := &clock{now: time.Now()}
	accounts := store.NewMemoryAccountStore()
	pub := &recordingPublisher{}

	deps := Deps{
		Tokenizer:  tokenizer.NewJWTTokenizer(key),
		Store:      store.NewMemoryStore(),
		Challenges: store.NewMemoryChallengeStore(clk.Now),
		Accounts:   accounts,
		Verifier:   signature.NewVerifier(),
		Events:     pub,
	}
	opts := DefaultOptions()
	opts.Now = clk.Now
	for _, m := range mutate {
		m(&deps, &opts)
	}

	return &env{
		svc:      NewAuthService(deps, opts),
		clock:    clk,
		accounts: accounts,
		events:   pub,
	}
}

type wallet struct {
	key     *ecdsa.PrivateKey
	network core.Network
	address string
}

func newWallet(t *testing.T, network core.Network) *wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address, err := signature.Address(network, &key.PublicKey)
	require.NoError(t, err)
	return &wallet{key: key, network: network, address: address}
}

// sign produces what the wallet extension returns for message
func (w *wallet) sign(t *testing.T, message string) string {
	t.Helper()
	digest, err := signature.Digest(w.network, []byte(message))
	require.NoError(t, err)
	sig, err := crypto.Sign(digest, w.key)
	require.NoError(t, err)
	return signature.EncodeSignature(sig)
}

func (e *env) login(t *testing.T, w *wallet) *core.Session {
	t.Helper()
	ctx := context.Background()

	challenge, err := e.svc.IssueChallenge(ctx, w.address, w.network)
	require.NoError(t, err)

	proof, err := e.svc.Verify(ctx, VerifyRequest{
		Purpose:   core.PurposeLogin,
		Address:   w.address,
		Network:   w.network,
		Message:   challenge.Message,
		Signature: w.sign(t, challenge.Message),
	})
	require.NoError(t, err)

	session, err := e.svc.LoginOrRegister(ctx, proof, proof.Identity)
	require.NoError(t, err)
	return session
}

var errBackend = errors.New("connection refused")

// failingChallenges fails every call, or blocks until the context is done when block is set
type failingChallenges struct {
	block bool
}

func (f failingChallenges) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return errBackend
}

func (f failingChallenges) Put(ctx context.Context, _ *core.Challenge, _ time.Duration) error {
	return f.wait(ctx)
}

func (f failingChallenges) Get(ctx context.Context, _ core.Purpose, _ core.Network, _ string) (*core.Challenge, error) {
	return nil, f.wait(ctx)
}

func (f failingChallenges) Consume(ctx context.Context, _ *core.Challenge) error {
	return f.wait(ctx)
}

var _ ports.ChallengeStore = failingChallenges{}

// laggingStore never sees invalidations on read, like a replica behind its primary
type laggingStore struct {
	ports.Store
}

func (laggingStore) IsTokenInvalidated(context.Context, string) (bool, error) {
	return false, nil
}

// slowVerifier advances the clock while it checks a signature
type slowVerifier struct {
	ports.SignatureVerifier
	clock *clock
	delay time.Duration
}

func (v slowVerifier) VerifySignature(network core.Network, address string, payload []byte, signature string) error {
	v.clock.Advance(v.delay)
	return v.SignatureVerifier.VerifySignature(network, address, payload, signature)
}
