package model

import (
	"context"

	"github.com/google/uuid"
)

type ContextManager interface {
	SetCallerToContext(ctx context.Context, accountID uuid.UUID, email string) context.Context
	GetCallerFromContext(ctx context.Context) (Caller, bool)
}

// Caller is the authenticated account behind a request.
type Caller struct {
	AccountID uuid.UUID
	Email     string
}
