package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
	role    string
}

func (c stubClaims) Subject() string { return c.subject }
func (c stubClaims) UserID() string  { return c.subject }
func (c stubClaims) Role() string    { return c.role }

type stubValidator struct{}

func (stubValidator) Validate(string) (AuthClaims, error) {
	return stubClaims{subject: "subject", role: "user"}, nil
}

func TestKeyfuncOptionsRefreshErrorHandlerIsSafe(t *testing.T) {
	opts := keyfuncOptions(nil)
	require.NotNil(t, opts.RefreshErrorHandler)
	require.NotPanics(t, func() {
		opts.RefreshErrorHandler(errors.New("refresh failed"))
	})

	require.Equal(t, time.Hour, opts.RefreshInterval)
	require.Equal(t, 5*time.Minute, opts.RefreshRateLimit)
	require.True(t, opts.RefreshUnknownKID)
}

func TestGetDefaultConfig(t *testing.T) {
	t.Run("fills in defaults", func(t *testing.T) {
		cfg := GetDefaultConfig(Config{
			TokenValidator: stubValidator{},
			SigningKey:     SigningKey{JWTAlg: "HS256", Key: []byte("key")},
		})

		require.Equal(t, "user", cfg.ContextKey)
		require.Equal(t, "Bearer", cfg.AuthScheme)
		require.NotNil(t, cfg.SuccessHandler)
		require.NotNil(t, cfg.ErrorHandler)
		require.NotNil(t, cfg.KeyFunc)
	})

	t.Run("panics without a validator", func(t *testing.T) {
		require.Panics(t, func() {
			GetDefaultConfig(Config{})
		})
	})
}

func TestRequirementAllows(t *testing.T) {
	t.Run("any token accepts every role", func(t *testing.T) {
		req := AnyToken()
		require.True(t, req.Allows(stubClaims{role: "user"}))
		require.True(t, req.Allows(stubClaims{role: "administrator"}))
	})

	t.Run("single role requirement", func(t *testing.T) {
		req := RequireRole("administrator")
		require.True(t, req.Allows(stubClaims{role: "administrator"}))
		require.False(t, req.Allows(stubClaims{role: "user"}))
		require.False(t, req.Allows(stubClaims{role: ""}))
	})

	t.Run("any of several roles", func(t *testing.T) {
		req := AnyOf("user", "administrator")
		require.True(t, req.Allows(stubClaims{role: "user"}))
		require.True(t, req.Allows(stubClaims{role: "administrator"}))
		require.False(t, req.Allows(stubClaims{role: "guest"}))
	})

	t.Run("nil claims never pass", func(t *testing.T) {
		require.False(t, AnyToken().Allows(nil))
		require.False(t, RequireRole("user").Allows(nil))
	})
}

func TestConfigAuthorize(t *testing.T) {
	t.Run("zero requirement accepts any claims", func(t *testing.T) {
		cfg := Config{}
		require.NoError(t, cfg.authorize(stubClaims{role: "user"}))
	})

	t.Run("wrong role is rejected through the requirement", func(t *testing.T) {
		cfg := Config{Requires: RequireRole("administrator")}
		require.NoError(t, cfg.authorize(stubClaims{role: "administrator"}))
		require.ErrorIs(t, cfg.authorize(stubClaims{role: "user"}), ErrAccessDenied)
	})

	t.Run("custom authorize hook runs after the requirement", func(t *testing.T) {
		cfg := Config{
			Authorize: func(claims AuthClaims) bool {
				return claims.Subject() == "subject"
			},
		}
		require.NoError(t, cfg.authorize(stubClaims{subject: "subject"}))
		require.ErrorIs(t, cfg.authorize(stubClaims{subject: "other"}), ErrAccessDenied)
	})
}

func TestGetExtractors(t *testing.T) {
	extractors := GetExtractors("header:Authorization,cookie:jwt,query:auth_token")
	require.Len(t, extractors, 3)

	extractors = GetExtractors("header:Authorization")
	require.Len(t, extractors, 1)
}
