package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApprovalStore persists attachment verification requests.
type ApprovalStore interface {
	Create(ctx context.Context, request ApprovalRequest) (ApprovalRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (ApprovalRequest, error)
	// Decide resolves a pending request. Returns false if it was not pending.
	Decide(ctx context.Context, id uuid.UUID, status ApprovalStatus, at time.Time) (bool, error)
	Latest(ctx context.Context, emailID, receiverID uuid.UUID) (ApprovalRequest, error)
	ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]ApprovalRequest, error)
}

// ApprovalStatus enumerates request outcomes.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// ApprovalRequest asks the sender to release an attachment to the receiver.
type ApprovalRequest struct {
	ID         uuid.UUID
	EmailID    uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	PhotoKey   string
	Status     ApprovalStatus
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

// RequestApprovalParams contains parameters to open an approval request.
type RequestApprovalParams struct {
	MessageID  uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Photo      []byte
	Client     ClientInfo
}
