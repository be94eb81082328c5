// Package identity is the built-in identity provider: bcrypt password hashes
// stored with the account and JWT access tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.IdentityProvider = (*Local)(nil)

// dummyHash keeps the unknown-email path about as slow as a password mismatch.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("securemail-dummy-password"), bcrypt.MinCost)

type Local struct {
	accounts model.AccountStore
	tokens   model.TokenManager
	hashCost int
	now      func() time.Time
}

func NewLocal(accounts model.AccountStore, tokens model.TokenManager) *Local {
	return &Local{
		accounts: accounts,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (l *Local) CreateAccount(ctx context.Context, email, password string, meta model.AccountMeta) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.hashCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := l.now()
	account, err := l.accounts.Create(ctx, model.Account{
		ID:           uuid.New(),
		Email:        email,
		FullName:     meta.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account.ID, nil
}

func (l *Local) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	account, err := l.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return model.Session{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return model.Session{}, model.ErrInvalidCredentials
	}

	token, err := l.tokens.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return model.Session{
		AccountID:   account.ID,
		Email:       account.Email,
		AccessToken: token,
	}, nil
}
