package middleware

import (
	"context"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/logger"
)

// Recovery turns handler panics into Internal errors.
type Recovery struct {
	logger *logger.Logger
}

func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

// Option returns the recovery interceptor option to pass to the recovery package.
func (r *Recovery) Option() recovery.Option {
	return recovery.WithRecoveryHandlerContext(r.handle)
}

func (r *Recovery) handle(ctx context.Context, p any) error {
	r.logger.Error("gRPC handler panicked", "panic", p, "stack", string(debug.Stack()))
	return status.Error(codes.Internal, "internal server error")
}
