package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

const bearerPrefix = "Bearer "

// TokenService validates bearer tokens.
type TokenService interface {
	ParseAccessToken(token string) (model.AccessClaims, error)
}

// Authenticate validates bearer tokens and puts the caller into the context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// AuthFunc is the auth.AuthFunc for the Mail service.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	token := bearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	claims, err := m.tokenService.ParseAccessToken(token)
	if err != nil {
		m.logger.Debug("rejected access token", "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid authorization token")
	}
	if claims.AccountID == uuid.Nil {
		return nil, status.Error(codes.Unauthenticated, "invalid authorization token")
	}

	return m.contextManager.SetCallerToContext(ctx, claims.AccountID, claims.Email), nil
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 || !strings.HasPrefix(values[0], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(values[0], bearerPrefix))
}
