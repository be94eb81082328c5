package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.MessageStore = (*MessageRepository)(nil)

type MessageRepository struct {
	db *Connection
}

func NewMessageRepository(db *Connection) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

const messageSelect = `SELECT m.id, m.sender_id, a.email, m.recipient_email, m.subject, m.encrypted_content,
			  m.attachment_key, m.attachment_name, m.sender_key_fingerprint, m.created_at, m.is_destroyed
			  FROM secure_messages m JOIN accounts a ON a.id = m.sender_id`

func scanMessage(row interface{ Scan(...any) error }) (model.Message, error) {
	var message model.Message
	err := row.Scan(
		&message.ID, &message.SenderID, &message.SenderEmail, &message.RecipientEmail, &message.Subject,
		&message.EncryptedContent, &message.AttachmentKey, &message.AttachmentName,
		&message.SenderKeyFingerprint, &message.CreatedAt, &message.IsDestroyed,
	)
	return message, err
}

func (r *MessageRepository) Create(ctx context.Context, message model.Message) (model.Message, error) {
	query := `INSERT INTO secure_messages (id, sender_id, recipient_email, subject, encrypted_content,
			  attachment_key, attachment_name, sender_key_fingerprint, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		message.ID, message.SenderID, message.RecipientEmail, message.Subject, message.EncryptedContent,
		message.AttachmentKey, message.AttachmentName, message.SenderKeyFingerprint, message.CreatedAt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}

	return message, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Message, error) {
	query := messageSelect + ` WHERE m.id = $1`

	message, err := scanMessage(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

func (r *MessageRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Message, error) {
	query := messageSelect + ` WHERE m.id = $1 FOR UPDATE OF m`

	message, err := scanMessage(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to lock message: %w", err)
	}

	return message, nil
}

func (r *MessageRepository) ListByRecipient(ctx context.Context, email string) ([]model.Message, error) {
	query := messageSelect + ` WHERE m.recipient_email = $1 AND NOT m.is_destroyed
			  ORDER BY m.created_at DESC`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepository) MarkDestroyed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE secure_messages SET is_destroyed = TRUE WHERE id = $1`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to destroy message: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to destroy message: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}

	return nil
}
