package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/securemail-server/internal/model"
)

// ContextManager is a mock of model.ContextManager.
type ContextManager struct {
	mock.Mock
}

func NewContextManager(t testingT) *ContextManager {
	m := &ContextManager{}
	register(&m.Mock, t)
	return m
}

func (_m *ContextManager) SetCallerToContext(ctx context.Context, accountID uuid.UUID, email string) context.Context {
	ret := _m.Called(ctx, accountID, email)
	if fn, ok := ret.Get(0).(func(context.Context, uuid.UUID, string) context.Context); ok {
		return fn(ctx, accountID, email)
	}
	return ret.Get(0).(context.Context)
}

func (_m *ContextManager) GetCallerFromContext(ctx context.Context) (model.Caller, bool) {
	ret := _m.Called(ctx)
	return ret.Get(0).(model.Caller), ret.Bool(1)
}
