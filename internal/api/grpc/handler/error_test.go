package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/model"
)

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name:     "validation error",
			in:       model.NewValidationError("email", "email"),
			wantCode: codes.InvalidArgument,
			wantMsg:  "validation failed: email: email",
		},
		{
			name:     "bad code",
			in:       model.ErrInvalidOrExpiredOTP,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "wrapped credentials error",
			in:       fmt.Errorf("login: %w", model.ErrInvalidCredentials),
			wantCode: codes.Unauthenticated,
			wantMsg:  model.ErrInvalidCredentials.Error(),
		},
		{
			name:     "wrong key",
			in:       model.ErrInvalidKey,
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "biometric failure carries the alert",
			in:       &model.BiometricFailure{AttemptsRemaining: 2},
			wantCode: codes.PermissionDenied,
			wantMsg:  (&model.BiometricFailure{AttemptsRemaining: 2}).Alert(),
		},
		{
			name:     "destroyed",
			in:       model.ErrMessageDestroyed,
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "already decided",
			in:       model.ErrAlreadyDecided,
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "request not found",
			in:       model.ErrRequestNotFound,
			wantCode: codes.NotFound,
		},
		{
			name:     "not found",
			in:       model.ErrNotFound,
			wantCode: codes.NotFound,
		},
		{
			name:     "duplicate",
			in:       model.ErrAlreadyExists,
			wantCode: codes.AlreadyExists,
		},
		{
			name:     "rate limited",
			in:       model.ErrRateLimited,
			wantCode: codes.ResourceExhausted,
		},
		{
			name:     "delivery failed",
			in:       fmt.Errorf("%w: %w", model.ErrNotificationDelivery, errors.New("dial tcp")),
			wantCode: codes.Unavailable,
			wantMsg:  model.ErrNotificationDelivery.Error(),
		},
		{
			name:     "status passthrough",
			in:       status.Error(codes.Canceled, "gone"),
			wantCode: codes.Canceled,
			wantMsg:  "gone",
		},
		{
			name:     "other",
			in:       errors.New("pq: connection reset"),
			wantCode: codes.Internal,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st, ok := status.FromError(handleError(tt.in))
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, st.Message())
			}
		})
	}
}

func TestAttemptsTrailer(t *testing.T) {
	remaining, ok := attemptsTrailer(fmt.Errorf("gate: %w", &model.BiometricFailure{AttemptsRemaining: 1}))
	assert.True(t, ok)
	assert.Equal(t, "1", remaining)

	_, ok = attemptsTrailer(model.ErrInvalidKey)
	assert.False(t, ok)
}
