package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/securemail-server/internal/model"
	"github.com/dtroode/securemail-server/internal/repository/memory"
	"github.com/dtroode/securemail-server/internal/token"
)

func newTestLocal(t *testing.T) (*Local, *token.JWT) {
	t.Helper()
	jwt := token.NewJWT("secret", time.Minute)
	l := NewLocal(memory.NewStore().Accounts(), jwt)
	l.hashCost = bcrypt.MinCost
	return l, jwt
}

func TestLocal_CreateAndAuthenticate(t *testing.T) {
	l, jwt := newTestLocal(t)
	ctx := context.Background()

	id, err := l.CreateAccount(ctx, "alice@example.com", "Passw0rd!", model.AccountMeta{FullName: "Alice"})
	require.NoError(t, err)

	session, err := l.Authenticate(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, id, session.AccountID)
	assert.Equal(t, "alice@example.com", session.Email)

	claims, err := jwt.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID)
}

func TestLocal_CreateDuplicate(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := l.CreateAccount(ctx, "alice@example.com", "Passw0rd!", model.AccountMeta{})
	require.NoError(t, err)

	_, err = l.CreateAccount(ctx, "alice@example.com", "Passw0rd!", model.AccountMeta{})
	require.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestLocal_AuthenticateFailures(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := l.CreateAccount(ctx, "alice@example.com", "Passw0rd!", model.AccountMeta{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "alice@example.com", password: "nope"},
		{name: "unknown email", email: "bob@example.com", password: "Passw0rd!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Authenticate(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, model.ErrInvalidCredentials)
		})
	}
}
