package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// MemoryAccountStore is an in-memory AccountStore used for development and tests
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]core.Account
	wallets  map[string]core.LinkedWallet
	admins   map[string]core.AdminWallet
}

// NewMemoryAccountStore creates an empty store
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]core.Account),
		wallets:  make(map[string]core.LinkedWallet),
		admins:   make(map[string]core.AdminWallet),
	}
}

var _ ports.AccountStore = (*MemoryAccountStore)(nil)

func (s *MemoryAccountStore) GetAccount(ctx context.Context, id string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &a, nil
}

// SetAccountActive toggles an account, used to disable accounts in tests
func (s *MemoryAccountStore) SetAccountActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		a.IsActive = active
		s.accounts[id] = a
	}
}

func (s *MemoryAccountStore) CreateAccountWithWallet(ctx context.Context, account *core.Account, wallet *core.LinkedWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.walletExists(wallet.Identity.Address, wallet.Identity.Network) {
		return ports.ErrConflict
	}
	s.accounts[account.ID] = *account
	s.wallets[wallet.ID] = *wallet
	return nil
}

func (s *MemoryAccountStore) FindWallet(ctx context.Context, address string, network core.Network) (*core.LinkedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallets {
		if w.Identity.Address == address && w.Identity.Network == network {
			return &w, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *MemoryAccountStore) GetWallet(ctx context.Context, id string) (*core.LinkedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &w, nil
}

func (s *MemoryAccountStore) ListWallets(ctx context.Context, accountID string) ([]core.LinkedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := []core.LinkedWallet{}
	for _, w := range s.wallets {
		if w.AccountID == accountID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})
	return wallets, nil
}

func (s *MemoryAccountStore) CreateWallet(ctx context.Context, wallet *core.LinkedWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.walletExists(wallet.Identity.Address, wallet.Identity.Network) {
		return ports.ErrConflict
	}
	s.wallets[wallet.ID] = *wallet
	return nil
}

func (s *MemoryAccountStore) MarkWalletVerified(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return ports.ErrNotFound
	}
	w.IsVerified = true
	w.VerifiedAt = &at
	w.UpdatedAt = at
	s.wallets[id] = w
	return nil
}

func (s *MemoryAccountStore) IsAdminWallet(ctx context.Context, address string, network core.Network) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[adminKey(address, network)]
	return ok && a.IsActive, nil
}

func (s *MemoryAccountStore) SaveAdminWallet(ctx context.Context, admin *core.AdminWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := adminKey(admin.Address, admin.Network)
	if existing, ok := s.admins[key]; ok {
		admin.AddedAt = existing.AddedAt
	}
	s.admins[key] = *admin
	return nil
}

func (s *MemoryAccountStore) ListAdminWallets(ctx context.Context) ([]core.AdminWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := make([]core.AdminWallet, 0, len(s.admins))
	for _, a := range s.admins {
		admins = append(admins, a)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].Address < admins[j].Address
	})
	return admins, nil
}

func (s *MemoryAccountStore) walletExists(address string, network core.Network) bool {
	for _, w := range s.wallets {
		if w.Identity.Address == address && w.Identity.Network == network {
			return true
		}
	}
	return false
}

func adminKey(address string, network core.Network) string {
	return string(network) + ":" + address
}
