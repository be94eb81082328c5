package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// Account handles signup, login and onboarding.
type Account struct {
	otp      *OTP
	identity model.IdentityProvider
	accounts model.AccountStore
	logger   *logger.Logger
	now      func() time.Time
}

func NewAccount(
	otp *OTP,
	identity model.IdentityProvider,
	accounts model.AccountStore,
	logger *logger.Logger,
) *Account {
	return &Account{
		otp:      otp,
		identity: identity,
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup verifies the signup code and creates the account. A failed creation
// still consumes the code.
func (s *Account) Signup(ctx context.Context, params model.SignupParams) (uuid.UUID, error) {
	params.Email = normalizeEmail(params.Email)
	if err := validateStruct(params); err != nil {
		return uuid.Nil, err
	}

	if err := s.otp.Verify(ctx, params.Email, params.Code, model.OTPTypeSignup); err != nil {
		return uuid.Nil, err
	}

	id, err := s.identity.CreateAccount(ctx, params.Email, params.Password, model.AccountMeta{FullName: params.FullName})
	if err != nil {
		s.logger.Error("Account service: failed to create account",
			"email", params.Email,
			"error", err.Error())
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account service: account created",
		"email", params.Email,
		"account_id", id)

	return id, nil
}

// Login checks the password first and then consumes the login code.
func (s *Account) Login(ctx context.Context, email, password, code string) (model.Session, error) {
	email = normalizeEmail(email)
	if err := validateVar("email", email, "required,email,max=255"); err != nil {
		return model.Session{}, err
	}
	if err := validateVar("password", password, "required,max=100"); err != nil {
		return model.Session{}, err
	}

	session, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			s.logger.Info("Account service: invalid credentials",
				"email", email)
			return model.Session{}, err
		}
		return model.Session{}, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.otp.Verify(ctx, email, code, model.OTPTypeLogin); err != nil {
		return model.Session{}, err
	}

	s.logger.Info("Account service: login succeeded",
		"email", email,
		"account_id", session.AccountID)

	return session, nil
}

// SetupSecretKey generates the account's secret key. The key is returned only once.
func (s *Account) SetupSecretKey(ctx context.Context, accountID uuid.UUID) (string, error) {
	key, err := envelope.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}

	if err := s.accounts.SetSecretKey(ctx, accountID, key, s.now()); err != nil {
		if errors.Is(err, model.ErrKeyAlreadySet) || errors.Is(err, model.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to save secret key: %w", err)
	}

	s.logger.Info("Account service: secret key generated",
		"account_id", accountID)

	return key, nil
}

func (s *Account) EnrollBiometric(ctx context.Context, accountID uuid.UUID) error {
	if err := s.accounts.SetBiometricEnrolled(ctx, accountID, s.now()); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to enroll biometric: %w", err)
	}
	return nil
}
