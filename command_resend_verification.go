package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResendVerificationMessage struct {
	Email string `json:"email"`
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

// ResendVerificationHandler reissues the sign up code for an account that
// started registration but never verified. It refuses accounts that are
// already verified or never asked for a code.
type ResendVerificationHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	notifier Notifier
	logger   Logger
}

func NewResendVerificationHandler(repo RepositoryManager, verifier *Verifier, notifier Notifier) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
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

		if acc.EmailVerified {
			return errConflict("Account already verified")
		}

		// Reissue only continues an existing registration.
		if _, err := h.repo.Verifications().GetLiveTx(ctx, tx, PurposeSignUp, acc.ID); err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Validation request not found")
			}
			return wrapStorage(err, "failed to load verification request")
		}

		request, err := h.verifier.IssueTx(ctx, tx, PurposeSignUp, acc.ID)
		if err != nil {
			return err
		}

		return h.notifier.SendVerificationEmail(ctx, acc.Email, PurposeSignUp, request.Code)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification resend transaction failed")
	}

	return nil
}
