package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OTPTTL is the lifetime of an issued code.
const OTPTTL = 5 * time.Minute

// OTPStore persists one-time passcodes, one live record per (email, type).
type OTPStore interface {
	// Upsert replaces any record for (email, type).
	Upsert(ctx context.Context, record OTPRecord) error
	Get(ctx context.Context, email string, otpType OTPType) (OTPRecord, error)
	// MarkVerified flips the record to verified only while it is unverified and unexpired.
	// Returns false when the record was already consumed, expired, or replaced.
	MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// OTPType enumerates what a code authorizes.
type OTPType string

const (
	OTPTypeSignup OTPType = "signup"
	OTPTypeLogin  OTPType = "login"
)

// Valid reports whether t is a known type.
func (t OTPType) Valid() bool {
	return t == OTPTypeSignup || t == OTPTypeLogin
}

// OTPRecord represents an issued code. Code is only populated on issue and never stored.
type OTPRecord struct {
	ID        uuid.UUID
	Email     string
	Type      OTPType
	Code      string
	CodeHash  []byte
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}
