package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.SecurityLogStore = (*SecurityLogRepository)(nil)

type SecurityLogRepository struct {
	s *Store
}

func (r *SecurityLogRepository) Append(ctx context.Context, entry model.SecurityLogEntry) error {
	defer r.s.lockWrite(ctx)()

	r.s.logs = append(r.s.logs, entry)
	return nil
}

func (r *SecurityLogRepository) ListByMessage(_ context.Context, emailID uuid.UUID) ([]model.SecurityLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := make([]model.SecurityLogEntry, 0)
	for _, entry := range r.s.logs {
		if entry.EmailID == emailID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
