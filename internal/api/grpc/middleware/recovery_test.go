package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/logger"
)

func TestRecovery_UnaryPanic(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecovery(logger.NewWithWriter(&buf, 0))
	interceptor := recovery.UnaryServerInterceptor(r.Option())

	info := &grpc.UnaryServerInfo{FullMethod: "/securemail.v1.Mail/VerifyKey"}
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("nil map")
	})

	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, buf.String(), "gRPC handler panicked")
}
