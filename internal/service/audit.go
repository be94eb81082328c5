package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// Audit writes the security log.
type Audit struct {
	store  model.SecurityLogStore
	logger *logger.Logger
	now    func() time.Time
}

func NewAudit(store model.SecurityLogStore, logger *logger.Logger) *Audit {
	return &Audit{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Record appends entry. Called with a transaction context it joins that transaction.
func (a *Audit) Record(ctx context.Context, entry model.SecurityLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now()
	}

	if err := a.store.Append(ctx, entry); err != nil {
		a.logger.Error("Audit service: failed to append security log",
			"email_id", entry.EmailID,
			"attempt_type", entry.AttemptType,
			"error", err.Error())
		return fmt.Errorf("failed to append security log: %w", err)
	}

	a.logger.Info("Audit service: verification attempt",
		"email_id", entry.EmailID,
		"actor", entry.ActorEmail,
		"attempt_type", entry.AttemptType,
		"success", entry.Success,
		"attempt_count", entry.AttemptCount,
		"detail", entry.Detail,
		"ip", entry.IPAddress)

	return nil
}

func (a *Audit) ForMessage(ctx context.Context, messageID uuid.UUID) ([]model.SecurityLogEntry, error) {
	entries, err := a.store.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list security log: %w", err)
	}
	return entries, nil
}
