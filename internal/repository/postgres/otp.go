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

var _ model.OTPStore = (*OTPRepository)(nil)

type OTPRepository struct {
	db *Connection
}

func NewOTPRepository(db *Connection) *OTPRepository {
	return &OTPRepository{
		db: db,
	}
}

func (r *OTPRepository) Upsert(ctx context.Context, record model.OTPRecord) error {
	query := `INSERT INTO otp_records (email, type, id, code_hash, expires_at, verified, created_at)
			  VALUES ($1, $2, $3, $4, $5, FALSE, $6)
			  ON CONFLICT (email, type) DO UPDATE
			  SET id = EXCLUDED.id, code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at,
			      verified = FALSE, created_at = EXCLUDED.created_at`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		record.Email, string(record.Type), record.ID, record.CodeHash, record.ExpiresAt, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert otp: %w", err)
	}

	return nil
}

func (r *OTPRepository) Get(ctx context.Context, email string, otpType model.OTPType) (model.OTPRecord, error) {
	query := `SELECT id, email, type, code_hash, expires_at, verified, created_at
			  FROM otp_records WHERE email = $1 AND type = $2`

	var (
		record model.OTPRecord
		typ    string
	)
	err := r.db.conn(ctx).QueryRowContext(ctx, query, email, string(otpType)).Scan(
		&record.ID, &record.Email, &typ, &record.CodeHash, &record.ExpiresAt, &record.Verified, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OTPRecord{}, model.ErrNotFound
		}
		return model.OTPRecord{}, fmt.Errorf("failed to get otp: %w", err)
	}
	record.Type = model.OTPType(typ)

	return record, nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `UPDATE otp_records SET verified = TRUE
			  WHERE id = $1 AND verified = FALSE AND expires_at > $2`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark otp verified: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark otp verified: %w", err)
	}

	return n == 1, nil
}

func (r *OTPRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM otp_records WHERE expires_at < $1 OR (verified = TRUE AND created_at < $1)`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale otps: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale otps: %w", err)
	}

	return n, nil
}
