package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SecurityLogStore is append-only.
type SecurityLogStore interface {
	Append(ctx context.Context, entry SecurityLogEntry) error
	ListByMessage(ctx context.Context, emailID uuid.UUID) ([]SecurityLogEntry, error)
}

// AttemptType enumerates gate checks.
type AttemptType string

const (
	AttemptKeyVerification       AttemptType = "key_verification"
	AttemptBiometricVerification AttemptType = "biometric_verification"
)

const (
	// DetailMessageDestroyed marks the entry written when a message is destroyed.
	DetailMessageDestroyed = "message_destroyed"
	// DetailAlreadyDestroyed marks an attempt rejected because the message is gone.
	DetailAlreadyDestroyed = "already_destroyed"
)

// SecurityLogEntry records a single verification attempt.
type SecurityLogEntry struct {
	ID           uuid.UUID
	EmailID      uuid.UUID
	ActorEmail   string
	AttemptType  AttemptType
	Success      bool
	AttemptCount int
	Detail       string
	UserAgent    string
	IPAddress    string
	CreatedAt    time.Time
}
