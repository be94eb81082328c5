package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

const (
	// DefaultAccessTTL is used when NewJWT gets a non-positive TTL.
	DefaultAccessTTL = 15 * time.Minute
	issuer           = "securemail"
	typeAccess       = "access"
)

// Claims represents JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	TokenType string `json:"typ"`
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWT creates a new JWT token manager.
func NewJWT(secretKey string, accessTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &JWT{secretKey: []byte(secretKey), accessTTL: accessTTL, now: time.Now}
}

// GenerateAccessToken creates a short-lived access token for the account.
func (j *JWT) GenerateAccessToken(accountID uuid.UUID, email string) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Email:     email,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates the token and returns what it asserts.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.AccessClaims{}, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return model.AccessClaims{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("failed to parse token subject: %w", err)
	}

	return model.AccessClaims{AccountID: accountID, Email: claims.Email}, nil
}
