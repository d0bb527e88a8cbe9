package account_test

import (
	"context"
	"testing"

	"github.com/fanari/go-account"
	"github.com/stretchr/testify/assert"
)

func newRefreshFixture() (*account.RefreshService, account.RefreshTokens) {
	repo := newMemRepoManager()
	tokens := repo.RefreshTokens()
	return account.NewRefreshService(tokens, []byte("refresh-signing-key")), tokens
}

func TestRefreshService_IssueOrRotate(t *testing.T) {
	ctx := context.Background()

	t.Run("first issue stores an active token", func(t *testing.T) {
		service, repo := newRefreshFixture()
		issuer := account.NewID()

		token, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		record, err := repo.GetByIssuer(ctx, issuer)
		assert.NoError(t, err)
		assert.Equal(t, token, record.Token)
		assert.Equal(t, account.TokenActive, record.Status)
	})

	t.Run("active token is stable across sign ins", func(t *testing.T) {
		service, _ := newRefreshFixture()
		issuer := account.NewID()

		first, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)

		second, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("blocked token is replaced on next sign in", func(t *testing.T) {
		service, _ := newRefreshFixture()
		issuer := account.NewID()

		first, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)

		blocked, err := service.Block(ctx, first)
		assert.NoError(t, err)
		assert.True(t, blocked)

		second, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)

		// old token no longer resolves
		status, err := service.Status(ctx, first)
		assert.NoError(t, err)
		assert.Nil(t, status)

		status, err = service.Status(ctx, second)
		assert.NoError(t, err)
		if assert.NotNil(t, status) {
			assert.Equal(t, account.TokenActive, *status)
		}
	})
}

func TestRefreshService_Status(t *testing.T) {
	ctx := context.Background()
	service, _ := newRefreshFixture()

	t.Run("unknown token yields nil status", func(t *testing.T) {
		status, err := service.Status(ctx, "never-issued")
		assert.NoError(t, err)
		assert.Nil(t, status)
	})

	t.Run("blocked token reports blocked", func(t *testing.T) {
		issuer := account.NewID()
		token, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)

		_, err = service.Block(ctx, token)
		assert.NoError(t, err)

		status, err := service.Status(ctx, token)
		assert.NoError(t, err)
		if assert.NotNil(t, status) {
			assert.Equal(t, account.TokenBlocked, *status)
		}
	})
}

func TestRefreshService_Block(t *testing.T) {
	ctx := context.Background()
	service, _ := newRefreshFixture()

	t.Run("blocking an unknown token reports false", func(t *testing.T) {
		blocked, err := service.Block(ctx, "never-issued")
		assert.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("blocking twice stays blocked", func(t *testing.T) {
		issuer := account.NewID()
		token, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)

		for i := 0; i < 2; i++ {
			blocked, err := service.Block(ctx, token)
			assert.NoError(t, err)
			assert.True(t, blocked)
		}
	})
}

func TestRefreshService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("renew without a row fails", func(t *testing.T) {
		service, _ := newRefreshFixture()
		_, err := service.Renew(ctx, account.NewID())
		assert.Error(t, err)
	})

	t.Run("renew reactivates a blocked row", func(t *testing.T) {
		service, repo := newRefreshFixture()
		issuer := account.NewID()

		first, err := service.IssueOrRotate(ctx, issuer)
		assert.NoError(t, err)

		_, err = service.Block(ctx, first)
		assert.NoError(t, err)

		renewed, err := service.Renew(ctx, issuer)
		assert.NoError(t, err)
		assert.NotEqual(t, first, renewed)

		record, err := repo.GetByIssuer(ctx, issuer)
		assert.NoError(t, err)
		assert.Equal(t, account.TokenActive, record.Status)
	})
}
