package account_test

import (
	"testing"
	"time"

	"github.com/fanari/go-account"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestTokenService_Generate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	service := account.NewTokenService(signingKey, issuer, nil, nil)

	t.Run("generates valid JWT token", func(t *testing.T) {
		id := account.NewID()

		tokenString, err := service.Generate(id, account.RoleUser)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &account.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*account.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, id.String(), claims.Subject())
		assert.Equal(t, id.String(), claims.UserID())
		assert.Equal(t, string(account.RoleUser), claims.Role())
		assert.Equal(t, issuer, claims.Issuer())
	})

	t.Run("tokens expire fifteen minutes after issue", func(t *testing.T) {
		tokenString, err := service.Generate(account.NewID(), account.RoleUser)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)

		ttl := claims.Expires().Sub(claims.IssuedAt())
		assert.Equal(t, account.AccessTokenTTL, ttl)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	service := account.NewTokenService(signingKey, issuer, nil, nil)

	t.Run("round trips a generated token", func(t *testing.T) {
		id := account.NewID()
		tokenString, err := service.Generate(id, account.RoleAdministrator)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)
		assert.Equal(t, id.String(), claims.Subject())
		assert.Equal(t, string(account.RoleAdministrator), claims.Role())
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		other := account.NewTokenService([]byte("other-key"), issuer, nil, nil)
		tokenString, err := other.Generate(account.NewID(), account.RoleUser)
		assert.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.Equal(t, account.TextCodeTokenMalformed, richTextCode(t, err))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		past := account.NewTokenService(signingKey, issuer, nil, nil).
			WithClock(func() time.Time { return time.Now().Add(-time.Hour) })

		tokenString, err := past.Generate(account.NewID(), account.RoleUser)
		assert.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.Equal(t, account.TextCodeTokenExpired, richTextCode(t, err))
	})

	t.Run("rejects token carrying an unknown role", func(t *testing.T) {
		id := account.NewID()
		now := time.Now()
		tokenString, err := service.SignClaims(&account.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   id.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			UID:      id.String(),
			UserRole: "superuser",
		})
		assert.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.Equal(t, account.TextCodeTokenMalformed, richTextCode(t, err))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("enforces configured issuer", func(t *testing.T) {
		other := account.NewTokenService(signingKey, "someone-else", nil, nil)
		tokenString, err := other.Generate(account.NewID(), account.RoleUser)
		assert.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})
}
