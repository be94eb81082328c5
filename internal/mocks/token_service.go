package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/securemail-server/internal/model"
)

// TokenService is a mock of the token parser used by the authenticate interceptor.
type TokenService struct {
	mock.Mock
}

func NewTokenService(t testingT) *TokenService {
	m := &TokenService{}
	register(&m.Mock, t)
	return m
}

func (_m *TokenService) ParseAccessToken(token string) (model.AccessClaims, error) {
	ret := _m.Called(token)
	return ret.Get(0).(model.AccessClaims), errorAt(ret, 1)
}
