package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.SecurityLogStore = (*SecurityLogRepository)(nil)

type SecurityLogRepository struct {
	db *Connection
}

func NewSecurityLogRepository(db *Connection) *SecurityLogRepository {
	return &SecurityLogRepository{
		db: db,
	}
}

func (r *SecurityLogRepository) Append(ctx context.Context, entry model.SecurityLogEntry) error {
	query := `INSERT INTO security_logs (id, email_id, actor_email, attempt_type, success, attempt_count,
			  detail, user_agent, ip_address, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		entry.ID, entry.EmailID, entry.ActorEmail, string(entry.AttemptType), entry.Success, entry.AttemptCount,
		entry.Detail, entry.UserAgent, entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append security log: %w", err)
	}

	return nil
}

func (r *SecurityLogRepository) ListByMessage(ctx context.Context, emailID uuid.UUID) ([]model.SecurityLogEntry, error) {
	query := `SELECT id, email_id, actor_email, attempt_type, success, attempt_count, detail,
			  user_agent, ip_address, created_at
			  FROM security_logs WHERE email_id = $1 ORDER BY created_at, id`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to list security logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.SecurityLogEntry, 0)
	for rows.Next() {
		var (
			entry       model.SecurityLogEntry
			attemptType string
		)
		if err := rows.Scan(
			&entry.ID, &entry.EmailID, &entry.ActorEmail, &attemptType, &entry.Success, &entry.AttemptCount,
			&entry.Detail, &entry.UserAgent, &entry.IPAddress, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security log: %w", err)
		}
		entry.AttemptType = model.AttemptType(attemptType)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list security logs: %w", err)
	}

	return entries, nil
}
