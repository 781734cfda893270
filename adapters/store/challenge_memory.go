package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

type challengeEntry struct {
	challenge core.Challenge
	until     time.Time
}

// MemoryChallengeStore keeps challenges in a map. Suitable for a single instance and tests.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]challengeEntry
	now     func() time.Time
}

// NewMemoryChallengeStore creates an empty store. now defaults to time.Now.
func NewMemoryChallengeStore(now func() time.Time) *MemoryChallengeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryChallengeStore{
		entries: make(map[string]challengeEntry),
		now:     now,
	}
}

var _ ports.ChallengeStore = (*MemoryChallengeStore)(nil)

// Put stores the challenge, replacing any challenge for the same key
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge *core.Challenge, retain time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.until) {
			delete(s.entries, k)
		}
	}

	s.entries[challengeKey(challenge.Purpose, challenge.Network, challenge.Address)] = challengeEntry{
		challenge: *challenge,
		until:     now.Add(retain),
	}
	return nil
}

// Get returns a copy of the stored challenge
func (s *MemoryChallengeStore) Get(ctx context.Context, purpose core.Purpose, network core.Network, address string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[challengeKey(purpose, network, address)]
	if !ok || s.now().After(e.until) {
		return nil, ports.ErrNotFound
	}
	c := e.challenge
	return &c, nil
}

// Consume marks the challenge as used if it is still the stored one
func (s *MemoryChallengeStore) Consume(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := challengeKey(challenge.Purpose, challenge.Network, challenge.Address)
	e, ok := s.entries[key]
	if !ok || s.now().After(e.until) || e.challenge.Nonce != challenge.Nonce {
		return ports.ErrNotFound
	}
	if e.challenge.Consumed {
		return ports.ErrConsumed
	}
	e.challenge.Consumed = true
	s.entries[key] = e
	return nil
}
