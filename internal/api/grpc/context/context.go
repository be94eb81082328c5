package context

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/securemail-server/internal/model"
)

// Metadata keys the authenticated caller is stored under. The authenticate
// interceptor overwrites whatever the client sent under these keys.
const (
	callerIDKey    = "x-caller-id"
	callerEmailKey = "x-caller-email"
)

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the authenticated caller in incoming gRPC metadata.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SetCallerToContext returns a context whose incoming metadata names the caller.
func (m *Manager) SetCallerToContext(ctx context.Context, accountID uuid.UUID, email string) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	md.Set(callerIDKey, accountID.String())
	md.Set(callerEmailKey, email)

	return metadata.NewIncomingContext(ctx, md)
}

// GetCallerFromContext reads the caller set by SetCallerToContext.
func (m *Manager) GetCallerFromContext(ctx context.Context) (model.Caller, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return model.Caller{}, false
	}

	ids := md.Get(callerIDKey)
	if len(ids) != 1 {
		return model.Caller{}, false
	}
	id, err := uuid.Parse(ids[0])
	if err != nil || id == uuid.Nil {
		return model.Caller{}, false
	}

	caller := model.Caller{AccountID: id}
	if emails := md.Get(callerEmailKey); len(emails) > 0 {
		caller.Email = emails[0]
	}

	return caller, true
}
