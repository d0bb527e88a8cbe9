package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RefreshAccessTokenMessage struct {
	RefreshToken string `json:"refresh_token"`
}

func (e RefreshAccessTokenMessage) Type() string { return "account.refresh_access_token" }

// RefreshAccessTokenHandler exchanges a stored refresh token for a new access
// token. The role is re-read from the account row so a stale or tampered
// client claim never survives the exchange.
type RefreshAccessTokenHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewRefreshAccessTokenHandler(repo RepositoryManager, tokens TokenService) *RefreshAccessTokenHandler {
	return &RefreshAccessTokenHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *RefreshAccessTokenHandler) WithLogger(logger Logger) *RefreshAccessTokenHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RefreshAccessTokenHandler) Execute(ctx context.Context, event RefreshAccessTokenMessage) (*AuthSession, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token refresh",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RefreshAccessTokenHandler) execute(ctx context.Context, event RefreshAccessTokenMessage) (*AuthSession, error) {
	if err := requireFields(map[string]string{"refresh_token": event.RefreshToken}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.repo.RefreshTokens().GetByToken(ctx, event.RefreshToken)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errForbidden("Unknown refresh token")
		}
		return nil, wrapStorage(err, "failed to resolve refresh token")
	}

	if record.Status != TokenActive {
		return nil, errForbidden("Refresh token blocked").WithTextCode(TextCodeTokenBlocked)
	}

	acc, err := h.repo.Accounts().Get(ctx, record.Issuer)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errForbidden("Unknown refresh token")
		}
		return nil, wrapStorage(err, "failed to load account")
	}

	if acc.Suspended() {
		return nil, errForbidden("Account suspended")
	}

	accessToken, err := h.tokens.Generate(acc.ID, acc.Role)
	if err != nil {
		return nil, err
	}

	return &AuthSession{
		AccountID:    acc.ID,
		Role:         acc.Role,
		AccessToken:  accessToken,
		RefreshToken: record.Token,
	}, nil
}
