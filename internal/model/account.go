package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	// SetSecretKey writes the key only if none is set yet. Returns ErrKeyAlreadySet otherwise.
	SetSecretKey(ctx context.Context, id uuid.UUID, key string, at time.Time) error
	SetBiometricEnrolled(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Account represents a registered user.
type Account struct {
	ID                uuid.UUID
	Email             string
	FullName          string
	PasswordHash      []byte
	SecretKey         string
	BiometricEnrolled bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasSecretKey reports whether onboarding generated a key for the account.
func (a Account) HasSecretKey() bool {
	return a.SecretKey != ""
}

// SignupParams contains parameters to complete a signup.
type SignupParams struct {
	Email    string `validate:"required,email,max=255"`
	Code     string `validate:"required,len=6,numeric"`
	Password string `validate:"required,min=8,max=100,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=abcdefghijklmnopqrstuvwxyz,containsany=0123456789"`
	FullName string `validate:"required,min=2,max=100"`
}

// Session is the result of a successful authentication.
type Session struct {
	AccountID   uuid.UUID
	Email       string
	AccessToken string
}
