package account

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[acc.Mobile]; exists {
		return errors.New("account exists")
	}
	r.accounts[acc.Mobile] = acc
	return nil
}

func (r *memoryRepository) FindByMobile(_ context.Context, mobile string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[mobile]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepository) UpdatePinDigest(_ context.Context, mobile, digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[mobile]
	if !ok {
		return ErrNotFound
	}
	acc.PinDigest = digest
	r.accounts[mobile] = acc
	return nil
}

func (r *memoryRepository) SetBlocked(_ context.Context, mobile string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[mobile]
	if !ok {
		return ErrNotFound
	}
	acc.Blocked = blocked
	r.accounts[mobile] = acc
	return nil
}
