package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	defer r.s.lockWrite(ctx)()

	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return model.Account{}, model.ErrAlreadyExists
		}
	}
	if _, ok := r.s.accounts[account.ID]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}

	r.s.accounts[account.ID] = account
	return account, nil
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return a, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

func (r *AccountRepository) SetSecretKey(ctx context.Context, id uuid.UUID, key string, at time.Time) error {
	defer r.s.lockWrite(ctx)()

	a, ok := r.s.accounts[id]
	if !ok {
		return model.ErrNotFound
	}
	if a.HasSecretKey() {
		return model.ErrKeyAlreadySet
	}

	a.SecretKey = key
	a.UpdatedAt = at
	r.s.accounts[id] = a
	return nil
}

func (r *AccountRepository) SetBiometricEnrolled(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lockWrite(ctx)()

	a, ok := r.s.accounts[id]
	if !ok {
		return model.ErrNotFound
	}

	a.BiometricEnrolled = true
	a.UpdatedAt = at
	r.s.accounts[id] = a
	return nil
}
