package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/logger"
)

// Logging logs every call with its duration and status code.
type Logging struct {
	logger *logger.Logger
}

func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC is the unary interceptor.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l.log(info.FullMethod, start, err)
	return resp, err
}

// HandleGRPCStream is the stream interceptor.
func (l *Logging) HandleGRPCStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	l.log(info.FullMethod, start, err)
	return err
}

func (l *Logging) log(method string, start time.Time, err error) {
	// status.Code maps non-status errors to Unknown; handlers always return status errors.
	code := status.Code(err)
	args := []any{
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	if err != nil {
		l.logger.Warn("gRPC request failed", append(args, "error", err.Error())...)
		return
	}
	l.logger.Info("gRPC request completed", args...)
}
