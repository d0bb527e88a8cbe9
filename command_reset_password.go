package account

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	Email           string `json:"email"`
	SecretKey       string `json:"secret_key"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (e ResetPasswordMessage) Type() string { return "account.reset_password" }

// ResetPasswordHandler is the final leg of the reset flow. It requires the
// live reset request to have been code validated and the secret key from
// VerifyResetCodeHandler; only then does the password change and the request
// get consumed.
type ResetPasswordHandler struct {
	repo    RepositoryManager
	refresh *RefreshService
	logger  Logger
}

func NewResetPasswordHandler(repo RepositoryManager, refresh *RefreshService) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:    repo,
		refresh: refresh,
		logger:  defLogger{},
	}
}

func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	email := strings.ToLower(strings.TrimSpace(event.Email))
	if err := requireFields(map[string]string{"email": email, "secret_key": event.SecretKey}); err != nil {
		return err
	}
	if err := ValidatePassword(event.Password, event.ConfirmPassword); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	issuer := NewID()
	blocked := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acc, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Account not found")
			}
			return wrapStorage(err, "failed to load account")
		}

		request, err := h.repo.Verifications().GetLiveTx(ctx, tx, PurposePasswordReset, acc.ID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Validation request not found")
			}
			return wrapStorage(err, "failed to load reset request")
		}

		if request.ExpiredAt(time.Now()) {
			return errCodeExpired("Validation code expired")
		}

		if !request.CodeValidated {
			return errForbidden("Reset code has not been validated")
		}

		if subtle.ConstantTimeCompare([]byte(request.SecretKey), []byte(event.SecretKey)) != 1 {
			return errForbidden("Secret key mismatch")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Accounts().UpdatePasswordTx(ctx, tx, acc.ID, hash); err != nil {
			return wrapStorage(err, "failed to update password")
		}

		if err := h.repo.Profiles().TouchTx(ctx, tx, acc.ID); err != nil {
			return wrapStorage(err, "failed to touch profile")
		}

		if err := h.repo.Verifications().DeleteForAccountTx(ctx, tx, PurposePasswordReset, acc.ID); err != nil {
			return wrapStorage(err, "failed to consume reset request")
		}

		issuer = acc.ID
		blocked = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	// Existing sessions die with the old password.
	if blocked && h.refresh != nil {
		if existing, err := h.repo.RefreshTokens().GetByIssuer(ctx, issuer); err == nil {
			if _, err := h.refresh.Block(ctx, existing.Token); err != nil {
				h.logger.Warn("ResetPasswordHandler could not block refresh token", "issuer", issuer)
			}
		}
	}

	h.logger.Info("ResetPasswordHandler updated password", "id", issuer)
	return nil
}
