package model

import "github.com/google/uuid"

// TokenManager generates and validates access tokens.
type TokenManager interface {
	GenerateAccessToken(accountID uuid.UUID, email string) (string, error)
	ParseAccessToken(token string) (AccessClaims, error)
}

// AccessClaims is what an access token asserts about its bearer.
type AccessClaims struct {
	AccountID uuid.UUID
	Email     string
}
