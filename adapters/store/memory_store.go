package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/ports"
)

// MemoryStore is an in-memory implementation of the token invalidation Store
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
	now               func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.Store {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
		now:               time.Now,
	}
}

// InvalidateToken marks a token as invalidated
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidate(tokenID, expiry)
	return nil
}

// InvalidateTokenOnce checks and sets the record under one lock
func (s *MemoryStore) InvalidateTokenOnce(ctx context.Context, tokenID string, expiry time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if until, ok := s.invalidatedTokens[tokenID]; ok && !s.now().After(until) {
		return false, nil
	}
	s.invalidate(tokenID, expiry)
	return true, nil
}

func (s *MemoryStore) invalidate(tokenID string, expiry time.Duration) {
	now := s.now()
	s.invalidatedTokens[tokenID] = now.Add(expiry)

	// Drop records whose token could no longer be used anyway
	for id, until := range s.invalidatedTokens {
		if now.After(until) {
			delete(s.invalidatedTokens, id)
		}
	}
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// Check if the token invalidation has expired
	if s.now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}
