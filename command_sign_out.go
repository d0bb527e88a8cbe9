package account

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type SignOutMessage struct {
	// RefreshToken, when present, is blocked so it cannot be replayed.
	RefreshToken string `json:"refresh_token"`

	// Session is the caller's per-request session store. Optional.
	Session SessionStore `json:"-"`
}

func (e SignOutMessage) Type() string { return "account.sign_out" }

// SignOutHandler tears down the caller's session and revokes the presented
// refresh token. An already unknown token is not an error.
type SignOutHandler struct {
	refresh *RefreshService
	logger  Logger
}

func NewSignOutHandler(refresh *RefreshService) *SignOutHandler {
	return &SignOutHandler{
		refresh: refresh,
		logger:  defLogger{},
	}
}

func (h *SignOutHandler) WithLogger(logger Logger) *SignOutHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignOutHandler) Execute(ctx context.Context, event SignOutMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign out",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignOutHandler) execute(ctx context.Context, event SignOutMessage) error {
	if event.RefreshToken != "" {
		blocked, err := h.refresh.Block(ctx, event.RefreshToken)
		if err != nil {
			return err
		}
		if !blocked {
			h.logger.Debug("SignOutHandler ignored unknown refresh token")
		}
	}

	if event.Session != nil {
		if err := event.Session.Purge(); err != nil {
			return wrapTransport(err, "failed to purge session")
		}
	}

	return nil
}
