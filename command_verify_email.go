package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

// VerifyEmailHandler redeems the sign up code, marks the account verified and
// signs the caller in with a fresh token pair.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	tokens   TokenService
	refresh  *RefreshService
	logger   Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, verifier *Verifier, tokens TokenService, refresh *RefreshService) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		verifier: verifier,
		tokens:   tokens,
		refresh:  refresh,
		logger:   defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) (*AuthSession, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) (*AuthSession, error) {
	email := strings.ToLower(strings.TrimSpace(event.Email))
	if err := requireFields(map[string]string{"email": email, "code": event.Code}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	acc := &Account{}
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		acc, err = h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Account not found")
			}
			return wrapStorage(err, "failed to load account")
		}

		if acc.EmailVerified {
			return errConflict("Account already verified")
		}

		if _, err := h.verifier.MatchTx(ctx, tx, PurposeSignUp, acc.ID, event.Code); err != nil {
			return err
		}

		if err := h.repo.Accounts().MarkEmailVerifiedTx(ctx, tx, acc.ID); err != nil {
			return wrapStorage(err, "failed to mark email verified")
		}

		return h.verifier.ConsumeTx(ctx, tx, PurposeSignUp, acc.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	accessToken, err := h.tokens.Generate(acc.ID, acc.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := h.refresh.IssueOrRotate(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("VerifyEmailHandler verified account", "id", acc.ID)

	return &AuthSession{
		AccountID:    acc.ID,
		Role:         acc.Role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
