package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

const accountColumns = `id, email, full_name, password_hash, secret_key, biometric_enrolled, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var (
		account   model.Account
		secretKey sql.NullString
	)
	err := row.Scan(
		&account.ID, &account.Email, &account.FullName, &account.PasswordHash, &secretKey,
		&account.BiometricEnrolled, &account.CreatedAt, &account.UpdatedAt,
	)
	account.SecretKey = secretKey.String
	return account, err
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, full_name, password_hash, biometric_enrolled, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query,
		account.ID, account.Email, account.FullName, account.PasswordHash, account.BiometricEnrolled,
		account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) SetSecretKey(ctx context.Context, id uuid.UUID, key string, at time.Time) error {
	query := `UPDATE accounts SET secret_key = $2, updated_at = $3
			  WHERE id = $1 AND secret_key IS NULL`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, key, at)
	if err != nil {
		return fmt.Errorf("failed to set secret key: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set secret key: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return model.ErrKeyAlreadySet
}

func (r *AccountRepository) SetBiometricEnrolled(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE accounts SET biometric_enrolled = TRUE, updated_at = $2 WHERE id = $1`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to enroll biometric: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to enroll biometric: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}

	return nil
}
