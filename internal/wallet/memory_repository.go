package wallet

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	wallets map[string][]Wallet
}

// NewMemoryRepository builds an in-memory wallet store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{wallets: make(map[string][]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.OwnerMobile] = append(r.wallets[w.OwnerMobile], w)
	return nil
}

func (r *memoryRepository) FindByOwner(_ context.Context, mobile string) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Wallet, len(r.wallets[mobile]))
	copy(out, r.wallets[mobile])
	return out, nil
}
