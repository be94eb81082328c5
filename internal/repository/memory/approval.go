package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.ApprovalStore = (*ApprovalRepository)(nil)

type ApprovalRepository struct {
	s *Store
}

func (r *ApprovalRepository) Create(ctx context.Context, request model.ApprovalRequest) (model.ApprovalRequest, error) {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.approvals {
		if existing.ID == request.ID {
			return model.ApprovalRequest{}, model.ErrAlreadyExists
		}
	}
	r.s.approvals = append(r.s.approvals, request)
	return request, nil
}

func (r *ApprovalRepository) GetByID(_ context.Context, id uuid.UUID) (model.ApprovalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, request := range r.s.approvals {
		if request.ID == id {
			return request, nil
		}
	}
	return model.ApprovalRequest{}, model.ErrNotFound
}

func (r *ApprovalRepository) Decide(ctx context.Context, id uuid.UUID, status model.ApprovalStatus, at time.Time) (bool, error) {
	defer r.s.lockWrite(ctx)()

	for i, request := range r.s.approvals {
		if request.ID != id {
			continue
		}
		if request.Status != model.ApprovalPending {
			return false, nil
		}
		decidedAt := at
		r.s.approvals[i].Status = status
		r.s.approvals[i].DecidedAt = &decidedAt
		return true, nil
	}
	return false, nil
}

// Latest returns the newest request; among equal timestamps the later insert wins.
func (r *ApprovalRepository) Latest(_ context.Context, emailID, receiverID uuid.UUID) (model.ApprovalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var (
		latest model.ApprovalRequest
		found  bool
	)
	for _, request := range r.s.approvals {
		if request.EmailID != emailID || request.ReceiverID != receiverID {
			continue
		}
		if !found || !request.CreatedAt.Before(latest.CreatedAt) {
			latest = request
			found = true
		}
	}
	if !found {
		return model.ApprovalRequest{}, model.ErrNotFound
	}
	return latest, nil
}

func (r *ApprovalRepository) ListPendingBySender(_ context.Context, senderID uuid.UUID) ([]model.ApprovalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	requests := make([]model.ApprovalRequest, 0)
	for i := len(r.s.approvals) - 1; i >= 0; i-- {
		request := r.s.approvals[i]
		if request.SenderID == senderID && request.Status == model.ApprovalPending {
			requests = append(requests, request)
		}
	}
	return requests, nil
}
