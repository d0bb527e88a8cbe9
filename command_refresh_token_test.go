package account_test

import (
	"context"
	"testing"

	"github.com/fanari/go-account"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestRefreshAccessTokenHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("active token yields a fresh access token", func(t *testing.T) {
		f := newLifecycleFixture()
		session := f.registerVerified(t, registerMessage())

		handler := account.NewRefreshAccessTokenHandler(f.repo, f.tokens)
		refreshed, err := handler.Execute(ctx, account.RefreshAccessTokenMessage{
			RefreshToken: session.RefreshToken,
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Equal(t, session.RefreshToken, refreshed.RefreshToken)
		assert.Equal(t, session.AccountID, refreshed.AccountID)

		claims, err := f.tokens.Validate(refreshed.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, session.AccountID.String(), claims.Subject())
	})

	t.Run("role comes from the account row, not the caller", func(t *testing.T) {
		f := newLifecycleFixture()
		session := f.registerVerified(t, registerMessage())

		acc, err := f.repo.Accounts().Get(ctx, session.AccountID)
		assert.NoError(t, err)
		acc.Role = account.RoleAdministrator
		_, err = f.repo.Accounts().CreateTx(ctx, nil, acc)
		assert.NoError(t, err)

		handler := account.NewRefreshAccessTokenHandler(f.repo, f.tokens)
		refreshed, err := handler.Execute(ctx, account.RefreshAccessTokenMessage{
			RefreshToken: session.RefreshToken,
		})
		assert.NoError(t, err)

		claims, err := f.tokens.Validate(refreshed.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, string(account.RoleAdministrator), claims.Role())
	})

	t.Run("blocked token is forbidden", func(t *testing.T) {
		f := newLifecycleFixture()
		session := f.registerVerified(t, registerMessage())

		_, err := f.refresh.Block(ctx, session.RefreshToken)
		assert.NoError(t, err)

		handler := account.NewRefreshAccessTokenHandler(f.repo, f.tokens)
		_, err = handler.Execute(ctx, account.RefreshAccessTokenMessage{
			RefreshToken: session.RefreshToken,
		})
		assert.Error(t, err)
		assert.Equal(t, account.TextCodeTokenBlocked, richTextCode(t, err))
	})

	t.Run("unknown token is forbidden", func(t *testing.T) {
		f := newLifecycleFixture()
		handler := account.NewRefreshAccessTokenHandler(f.repo, f.tokens)

		_, err := handler.Execute(ctx, account.RefreshAccessTokenMessage{
			RefreshToken: "never-issued",
		})
		assert.Error(t, err)
		assert.Equal(t, goerrors.CategoryAuthz, richCategory(t, err))
	})

	t.Run("missing token is bad input", func(t *testing.T) {
		f := newLifecycleFixture()
		handler := account.NewRefreshAccessTokenHandler(f.repo, f.tokens)

		_, err := handler.Execute(ctx, account.RefreshAccessTokenMessage{})
		assert.Error(t, err)
		assert.Equal(t, goerrors.CategoryBadInput, richCategory(t, err))
	})
}
