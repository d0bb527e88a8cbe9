package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ForgotPasswordMessage struct {
	Email string `json:"email"`
}

func (e ForgotPasswordMessage) Type() string { return "account.forgot_password" }

// ForgotPasswordHandler starts the two step reset flow by mailing a reset
// code. The request also carries a server side secret key that is only
// surfaced once the code has been redeemed.
type ForgotPasswordHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	notifier Notifier
	logger   Logger
}

func NewForgotPasswordHandler(repo RepositoryManager, verifier *Verifier, notifier Notifier) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *ForgotPasswordHandler) WithLogger(logger Logger) *ForgotPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	email := strings.ToLower(strings.TrimSpace(event.Email))
	if err := requireFields(map[string]string{"email": email}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acc, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Account not found")
			}
			return wrapStorage(err, "failed to load account")
		}

		if !acc.EmailVerified {
			return errNotFound("Account not found")
		}

		request, err := h.verifier.IssueTx(ctx, tx, PurposePasswordReset, acc.ID)
		if err != nil {
			return err
		}

		return h.notifier.SendVerificationEmail(ctx, acc.Email, PurposePasswordReset, request.Code)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset initialization failed")
	}

	return nil
}
