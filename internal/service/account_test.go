package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/model"
)

const testPassword = "Sup3rSecret"

func TestAccount_SignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.otp.Issue(ctx, "alice@example.com", model.OTPTypeSignup)
	require.NoError(t, err)

	id, err := f.account.Signup(ctx, model.SignupParams{
		Email:    "Alice@example.com",
		Code:     signup.Code,
		Password: testPassword,
		FullName: "Alice Doe",
	})
	require.NoError(t, err)

	account, err := f.store.Accounts().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "Alice Doe", account.FullName)

	login, err := f.otp.Issue(ctx, "alice@example.com", model.OTPTypeLogin)
	require.NoError(t, err)

	session, err := f.account.Login(ctx, "alice@example.com", testPassword, login.Code)
	require.NoError(t, err)
	assert.Equal(t, id, session.AccountID)
	assert.NotEmpty(t, session.AccessToken)
}

func TestAccount_SignupConsumesCodeOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAccount(t, "alice@example.com", false)

	record, err := f.otp.Issue(ctx, "alice@example.com", model.OTPTypeSignup)
	require.NoError(t, err)

	params := model.SignupParams{Email: "alice@example.com", Code: record.Code, Password: testPassword, FullName: "Alice"}
	_, err = f.account.Signup(ctx, params)
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	_, err = f.account.Signup(ctx, params)
	require.ErrorIs(t, err, model.ErrInvalidOrExpiredOTP)
}

func TestAccount_SignupValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		params model.SignupParams
		field  string
	}{
		{name: "weak password", params: model.SignupParams{Email: "a@example.com", Code: "123456", Password: "alllowercase1", FullName: "Al"}, field: "password"},
		{name: "short name", params: model.SignupParams{Email: "a@example.com", Code: "123456", Password: testPassword, FullName: "A"}, field: "full_name"},
		{name: "bad code", params: model.SignupParams{Email: "a@example.com", Code: "12345", Password: testPassword, FullName: "Al"}, field: "code"},
		{name: "bad email", params: model.SignupParams{Email: "nope", Code: "123456", Password: testPassword, FullName: "Al"}, field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.account.Signup(context.Background(), tt.params)
			require.ErrorIs(t, err, model.ErrValidation)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAccount_LoginChecksPasswordBeforeCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.otp.Issue(ctx, "alice@example.com", model.OTPTypeSignup)
	require.NoError(t, err)
	_, err = f.account.Signup(ctx, model.SignupParams{Email: "alice@example.com", Code: signup.Code, Password: testPassword, FullName: "Alice"})
	require.NoError(t, err)

	login, err := f.otp.Issue(ctx, "alice@example.com", model.OTPTypeLogin)
	require.NoError(t, err)

	_, err = f.account.Login(ctx, "alice@example.com", "Wr0ngPassword", login.Code)
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	// The code survives a bad password.
	_, err = f.account.Login(ctx, "alice@example.com", testPassword, login.Code)
	require.NoError(t, err)
}

func TestAccount_SetupSecretKeyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account, _ := f.addAccount(t, "alice@example.com", false)

	key, err := f.account.SetupSecretKey(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, envelope.ValidKey(key))

	_, err = f.account.SetupSecretKey(ctx, account.ID)
	require.ErrorIs(t, err, model.ErrKeyAlreadySet)

	stored, err := f.store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, key, stored.SecretKey)
}

func TestAccount_EnrollBiometric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account, _ := f.addAccount(t, "alice@example.com", false)

	require.NoError(t, f.account.EnrollBiometric(ctx, account.ID))

	stored, err := f.store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.BiometricEnrolled)
}
