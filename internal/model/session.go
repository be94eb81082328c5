package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxBiometricAttempts is the number of biometric failures a recipient gets before destruction.
const MaxBiometricAttempts = 3

// DecryptionSessionStore persists per-(message, recipient) gate state.
type DecryptionSessionStore interface {
	// GetOrCreate returns the session, creating a locked one with maxAttempts when absent.
	GetOrCreate(ctx context.Context, messageID, recipientID uuid.UUID, maxAttempts int) (DecryptionSession, error)
	Get(ctx context.Context, messageID, recipientID uuid.UUID) (DecryptionSession, error)
	// Update writes flags and counters. AttemptsRemaining is never raised by an update.
	Update(ctx context.Context, session DecryptionSession) (DecryptionSession, error)
	// Reset clears verification flags and keeps counters.
	Reset(ctx context.Context, messageID, recipientID uuid.UUID) error
	ResetAll(ctx context.Context, messageID uuid.UUID) error
}

// DecryptionSession is the server-owned state of a recipient's attempt to open a message.
type DecryptionSession struct {
	MessageID         uuid.UUID
	RecipientID       uuid.UUID
	KeyVerified       bool
	BiometricVerified bool
	AttemptsRemaining int
	KeyAttempts       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State names the gate state the session is in.
func (s DecryptionSession) State() GateState {
	switch {
	case s.AttemptsRemaining <= 0:
		return GateStateDestroyed
	case s.BiometricVerified:
		return GateStateBiometricVerified
	case s.KeyVerified:
		return GateStateKeyVerified
	default:
		return GateStateLocked
	}
}

// GateState enumerates decryption gate states.
type GateState string

const (
	GateStateLocked            GateState = "locked"
	GateStateKeyVerified       GateState = "key_verified"
	GateStateBiometricVerified GateState = "biometric_verified"
	GateStateDestroyed         GateState = "destroyed"
)

// ClientInfo describes where a verification attempt came from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// KeyCheckResult is returned after a successful key check.
type KeyCheckResult struct {
	State GateState
	KeyID string
}

// BiometricResult is returned after a successful biometric check.
type BiometricResult struct {
	State   GateState
	Subject string
	Content string
	// HasAttachment tells the client an approval request is needed for the attachment.
	HasAttachment  bool
	AttachmentName string
}
