package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.DecryptionSessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

const sessionColumns = `message_id, recipient_id, key_verified, biometric_verified, attempts_remaining,
			  key_attempts, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (model.DecryptionSession, error) {
	var session model.DecryptionSession
	err := row.Scan(
		&session.MessageID, &session.RecipientID, &session.KeyVerified, &session.BiometricVerified,
		&session.AttemptsRemaining, &session.KeyAttempts, &session.CreatedAt, &session.UpdatedAt,
	)
	return session, err
}

func (r *SessionRepository) GetOrCreate(ctx context.Context, messageID, recipientID uuid.UUID, maxAttempts int) (model.DecryptionSession, error) {
	query := `INSERT INTO decryption_sessions (message_id, recipient_id, attempts_remaining)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (message_id, recipient_id) DO NOTHING`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, messageID, recipientID, maxAttempts); err != nil {
		return model.DecryptionSession{}, fmt.Errorf("failed to create decryption session: %w", err)
	}

	return r.Get(ctx, messageID, recipientID)
}

func (r *SessionRepository) Get(ctx context.Context, messageID, recipientID uuid.UUID) (model.DecryptionSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM decryption_sessions
			  WHERE message_id = $1 AND recipient_id = $2`

	session, err := scanSession(r.db.conn(ctx).QueryRowContext(ctx, query, messageID, recipientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DecryptionSession{}, model.ErrNotFound
		}
		return model.DecryptionSession{}, fmt.Errorf("failed to get decryption session: %w", err)
	}

	return session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session model.DecryptionSession) (model.DecryptionSession, error) {
	query := `UPDATE decryption_sessions
			  SET key_verified = $3, biometric_verified = $4,
			      attempts_remaining = LEAST(attempts_remaining, $5),
			      key_attempts = $6, updated_at = $7
			  WHERE message_id = $1 AND recipient_id = $2
			  RETURNING ` + sessionColumns

	saved, err := scanSession(r.db.conn(ctx).QueryRowContext(ctx, query,
		session.MessageID, session.RecipientID, session.KeyVerified, session.BiometricVerified,
		session.AttemptsRemaining, session.KeyAttempts, session.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DecryptionSession{}, model.ErrNotFound
		}
		return model.DecryptionSession{}, fmt.Errorf("failed to update decryption session: %w", err)
	}

	return saved, nil
}

func (r *SessionRepository) Reset(ctx context.Context, messageID, recipientID uuid.UUID) error {
	query := `UPDATE decryption_sessions SET key_verified = FALSE, biometric_verified = FALSE
			  WHERE message_id = $1 AND recipient_id = $2`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, messageID, recipientID); err != nil {
		return fmt.Errorf("failed to reset decryption session: %w", err)
	}

	return nil
}

func (r *SessionRepository) ResetAll(ctx context.Context, messageID uuid.UUID) error {
	query := `UPDATE decryption_sessions SET key_verified = FALSE, biometric_verified = FALSE
			  WHERE message_id = $1`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, messageID); err != nil {
		return fmt.Errorf("failed to reset decryption sessions: %w", err)
	}

	return nil
}
