package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	u := uuid.New()

	access, err := j.GenerateAccessToken(u, "bob@example.com")
	require.NoError(t, err)
	got, err := j.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u, got.AccountID)
	require.Equal(t, "bob@example.com", got.Email)
}

func TestJWT_WrongSecret(t *testing.T) {
	access, err := NewJWT("secret", 0).GenerateAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = NewJWT("other", 0).ParseAccessToken(access)
	require.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	j.now = func() time.Time { return issued }

	access, err := j.GenerateAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ParseAccessToken(access)
	require.Error(t, err)
}

func TestJWT_TokenType_Mismatch(t *testing.T) {
	j := NewJWT("secret", 0)
	now := time.Now()

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		TokenType: "refresh",
	})
	s, err := forged.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = j.ParseAccessToken(s)
	require.Error(t, err)
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	j := NewJWT("secret", 0)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		TokenType: typeAccess,
	})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.ParseAccessToken(s)
	require.Error(t, err)
}

func TestNewJWT_DefaultTTL(t *testing.T) {
	require.Equal(t, DefaultAccessTTL, NewJWT("s", 0).accessTTL)
}
