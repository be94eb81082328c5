package handler

import (
	"errors"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// attemptsRemainingKey is the trailer carrying the biometric attempts left after a failure.
const attemptsRemainingKey = "x-attempts-remaining"

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{model.ErrValidation, codes.InvalidArgument},
	{model.ErrInvalidOrExpiredOTP, codes.Unauthenticated},
	{model.ErrInvalidCredentials, codes.Unauthenticated},
	{model.ErrInvalidKey, codes.PermissionDenied},
	{model.ErrBiometricMismatch, codes.PermissionDenied},
	{model.ErrForbidden, codes.PermissionDenied},
	{model.ErrApprovalRequired, codes.PermissionDenied},
	{model.ErrMessageDestroyed, codes.FailedPrecondition},
	{model.ErrKeyNotVerified, codes.FailedPrecondition},
	{model.ErrNotBiometricVerified, codes.FailedPrecondition},
	{model.ErrNoAttachment, codes.FailedPrecondition},
	{model.ErrSecretKeyMissing, codes.FailedPrecondition},
	{model.ErrKeyAlreadySet, codes.FailedPrecondition},
	{model.ErrAlreadyDecided, codes.FailedPrecondition},
	{model.ErrRequestNotFound, codes.NotFound},
	{model.ErrNotFound, codes.NotFound},
	{model.ErrAlreadyExists, codes.AlreadyExists},
	{model.ErrRateLimited, codes.ResourceExhausted},
	{model.ErrNotificationDelivery, codes.Unavailable},
}

// handleError converts a service error into a gRPC status.
func handleError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var failure *model.BiometricFailure
	if errors.As(err, &failure) {
		return status.Error(codes.PermissionDenied, failure.Alert())
	}

	var validation *model.ValidationError
	if errors.As(err, &validation) {
		return status.Error(codes.InvalidArgument, validation.Error())
	}

	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return status.Error(c.code, c.err.Error())
		}
	}

	return status.Error(codes.Internal, "internal server error")
}

// fail logs err under op and returns its gRPC status.
func fail(lg *logger.Logger, op string, err error, args ...any) error {
	st := handleError(err)
	args = append(args, "error", err.Error())
	if status.Code(st) == codes.Internal {
		lg.Error(op+" failed", args...)
	} else {
		lg.Info(op+" rejected", append(args, "code", status.Code(st).String())...)
	}
	return st
}

func attemptsTrailer(err error) (string, bool) {
	var failure *model.BiometricFailure
	if !errors.As(err, &failure) {
		return "", false
	}
	return strconv.Itoa(failure.AttemptsRemaining), true
}
