package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyResetCodeMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (e VerifyResetCodeMessage) Type() string { return "account.verify_reset_code" }

// VerifyResetCodeHandler redeems the emailed reset code and releases the
// secret key the final reset call must present. The request stays live until
// the password is actually changed.
type VerifyResetCodeHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	logger   Logger
}

func NewVerifyResetCodeHandler(repo RepositoryManager, verifier *Verifier) *VerifyResetCodeHandler {
	return &VerifyResetCodeHandler{
		repo:     repo,
		verifier: verifier,
		logger:   defLogger{},
	}
}

func (h *VerifyResetCodeHandler) WithLogger(logger Logger) *VerifyResetCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyResetCodeHandler) Execute(ctx context.Context, event VerifyResetCodeMessage) (string, error) {
	select {
	case <-ctx.Done():
		return "", goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset code verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyResetCodeHandler) execute(ctx context.Context, event VerifyResetCodeMessage) (string, error) {
	email := strings.ToLower(strings.TrimSpace(event.Email))
	if err := requireFields(map[string]string{"email": email, "code": event.Code}); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	secretKey := ""
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acc, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return errNotFound("Account not found")
			}
			return wrapStorage(err, "failed to load account")
		}

		request, err := h.verifier.MatchTx(ctx, tx, PurposePasswordReset, acc.ID, event.Code)
		if err != nil {
			return err
		}

		secretKey = request.SecretKey
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}

		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "reset code verification failed")
	}

	return secretKey, nil
}
