package bankkey

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBankNotFound is returned when no key material exists for a bank code.
var ErrBankNotFound = errors.New("bank key material not found")

// EncryptedRecord holds the stored, still-wrapped secret key and IV for a bank.
type EncryptedRecord struct {
	BankCode  string
	SecretKey string
	IV        string
}

// Store fetches encrypted key material for a bank code.
type Store interface {
	FetchEncrypted(ctx context.Context, bankCode string) (EncryptedRecord, error)
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed key material store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// FetchEncrypted reads the wrapped secret key and IV for a bank code.
func (s *PostgresStore) FetchEncrypted(ctx context.Context, bankCode string) (EncryptedRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT bank_code, enc_secret_key, enc_iv FROM bank_keys WHERE bank_code = $1`, bankCode)
	var rec EncryptedRecord
	if err := row.Scan(&rec.BankCode, &rec.SecretKey, &rec.IV); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EncryptedRecord{}, ErrBankNotFound
		}
		return EncryptedRecord{}, err
	}
	return rec, nil
}

// MemoryStore implements Store backed by a map; Put seeds wrapped material.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]EncryptedRecord
}

// NewMemoryStore builds an in-memory key material store for development and tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]EncryptedRecord)}
}

// Put stores an encrypted record for a bank code.
func (s *MemoryStore) Put(rec EncryptedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.BankCode] = rec
}

// FetchEncrypted returns the encrypted record for a bank code.
func (s *MemoryStore) FetchEncrypted(_ context.Context, bankCode string) (EncryptedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[bankCode]
	if !ok {
		return EncryptedRecord{}, ErrBankNotFound
	}
	return rec, nil
}
