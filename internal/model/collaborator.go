package model

import (
	"context"

	"github.com/google/uuid"
)

// Transactor runs fn in a single store transaction. Stores called with the
// returned context take part in it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers a message out of band.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// BiometricVerifier decides whether a biometric check passes for a user.
type BiometricVerifier interface {
	Verify(ctx context.Context, userID uuid.UUID) (bool, error)
}

// IdentityProvider owns credentials and sessions.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string, meta AccountMeta) (uuid.UUID, error)
	Authenticate(ctx context.Context, email, password string) (Session, error)
}

// AccountMeta is profile data stored with a new account.
type AccountMeta struct {
	FullName string
}
