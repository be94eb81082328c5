package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation marks malformed input. See ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the caller is not allowed to act on a resource.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned when a caller exceeds an issuance budget.
	ErrRateLimited = errors.New("too many requests")

	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired code")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotificationDelivery = errors.New("notification delivery failed")

	ErrKeyAlreadySet    = errors.New("secret key already set")
	ErrSecretKeyMissing = errors.New("secret key is not set up")

	ErrInvalidKey           = errors.New("invalid secret key")
	ErrKeyNotVerified       = errors.New("secret key not verified")
	ErrBiometricMismatch    = errors.New("biometric verification failed")
	ErrNotBiometricVerified = errors.New("biometric verification required")
	ErrMessageDestroyed     = errors.New("message destroyed")

	ErrNoAttachment     = errors.New("message has no attachment")
	ErrApprovalRequired = errors.New("attachment approval required")
	ErrRequestNotFound  = errors.New("verification request not found")
	ErrAlreadyDecided   = errors.New("verification request already decided")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, reason))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BiometricFailure is returned by a failed biometric attempt.
type BiometricFailure struct {
	AttemptsRemaining int
	Destroyed         bool
}

func (e *BiometricFailure) Error() string {
	if e.Destroyed {
		return fmt.Sprintf("%s: message destroyed", ErrBiometricMismatch)
	}
	return fmt.Sprintf("%s: %d attempts remaining", ErrBiometricMismatch, e.AttemptsRemaining)
}

func (e *BiometricFailure) Is(target error) bool {
	return target == ErrBiometricMismatch
}

// Alert returns the warning shown to the recipient after a failed attempt.
func (e *BiometricFailure) Alert() string {
	if e.Destroyed {
		return "Security alert: maximum verification attempts exceeded. The message has been permanently destroyed and the sender has been notified."
	}
	return fmt.Sprintf("Security alert: biometric verification failed. %d attempts remaining before the message is destroyed.", e.AttemptsRemaining)
}
