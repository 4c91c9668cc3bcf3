package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no account exists for the given mobile number.
var ErrNotFound = errors.New("account not found")

// Repository persists wallet accounts.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	FindByMobile(ctx context.Context, mobile string) (Account, error)
	UpdatePinDigest(ctx context.Context, mobile, digest string) error
	SetBlocked(ctx context.Context, mobile string, blocked bool) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	accID, err := uuid.Parse(acc.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts
        (id, mobile, wallet_number, bank_code, client_code, role, blocked, pin_digest, answer_hash, answer_salt, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		accID, acc.Mobile, acc.WalletNumber, acc.BankCode, acc.ClientCode, acc.Role,
		acc.Blocked, acc.PinDigest, acc.AnswerHash, acc.AnswerSalt, acc.CreatedAt.UTC())
	return err
}

// FindByMobile fetches an account by mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, mobile, wallet_number, bank_code, client_code, role,
        blocked, pin_digest, answer_hash, answer_salt, created_at
        FROM accounts WHERE mobile = $1`, mobile)
	var (
		id        uuid.UUID
		createdAt time.Time
		acc       Account
	)
	if err := row.Scan(&id, &acc.Mobile, &acc.WalletNumber, &acc.BankCode, &acc.ClientCode,
		&acc.Role, &acc.Blocked, &acc.PinDigest, &acc.AnswerHash, &acc.AnswerSalt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acc.ID = id.String()
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}

// UpdatePinDigest stores a new legacy PIN digest for the account.
func (r *PostgresRepository) UpdatePinDigest(ctx context.Context, mobile, digest string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET pin_digest = $1 WHERE mobile = $2`, digest, mobile)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBlocked flips the account block flag.
func (r *PostgresRepository) SetBlocked(ctx context.Context, mobile string, blocked bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET blocked = $1 WHERE mobile = $2`, blocked, mobile)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
