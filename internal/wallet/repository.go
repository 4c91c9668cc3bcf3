package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists wallet metadata.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	FindByOwner(ctx context.Context, mobile string) ([]Wallet, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, owner_mobile, wallet_number, bank_code, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		walletID, w.OwnerMobile, w.WalletNumber, w.BankCode, w.Status, w.CreatedAt.UTC())
	return err
}

// FindByOwner lists all wallets owned by a mobile number.
func (r *PostgresRepository) FindByOwner(ctx context.Context, mobile string) ([]Wallet, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_mobile, wallet_number, bank_code, status, created_at
        FROM wallets WHERE owner_mobile = $1 ORDER BY created_at`, mobile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
			w         Wallet
		)
		if err := rows.Scan(&id, &w.OwnerMobile, &w.WalletNumber, &w.BankCode, &w.Status, &createdAt); err != nil {
			return nil, err
		}
		w.ID = id.String()
		w.CreatedAt = createdAt.UTC()
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
