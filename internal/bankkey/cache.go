package bankkey

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// Material is the decrypted per-bank key material. Once computed for a bank
// code it is treated as immutable for the life of the process; there is no
// rotation path.
type Material struct {
	BankCode  string
	SecretKey string
	IV        string
}

// Cache resolves decrypted key material per bank code, populating on first
// use. Concurrent misses for the same bank code may both unwrap and store;
// the computation is deterministic so the race is harmless and cheaper than
// locking the hot path.
type Cache struct {
	store   Store
	master  []byte
	entries *gocache.Cache
}

// NewCache builds a cache over the given key-material store and master key.
func NewCache(store Store, master []byte) *Cache {
	return &Cache{
		store:   store,
		master:  master,
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the decrypted key material for a bank code, unwrapping and
// caching it on first access. A failure for one bank code leaves entries for
// other bank codes untouched.
func (c *Cache) Get(ctx context.Context, bankCode string) (Material, error) {
	if v, ok := c.entries.Get(bankCode); ok {
		return v.(Material), nil
	}

	rec, err := c.store.FetchEncrypted(ctx, bankCode)
	if err != nil {
		return Material{}, fmt.Errorf("fetch key material for bank %s: %w", bankCode, err)
	}

	secret, err := Unwrap(rec.SecretKey, c.master)
	if err != nil {
		return Material{}, fmt.Errorf("unwrap secret key for bank %s: %w", bankCode, err)
	}
	iv, err := Unwrap(rec.IV, c.master)
	if err != nil {
		return Material{}, fmt.Errorf("unwrap iv for bank %s: %w", bankCode, err)
	}

	mat := Material{BankCode: bankCode, SecretKey: secret, IV: iv}
	c.entries.Set(bankCode, mat, gocache.NoExpiration)
	return mat, nil
}
