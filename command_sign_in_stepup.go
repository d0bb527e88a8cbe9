package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type CompleteSignInStepUpMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`

	// Session is the caller's per-request session store. Optional.
	Session SessionStore `json:"-"`
}

func (e CompleteSignInStepUpMessage) Type() string { return "account.sign_in_step_up" }

// CompleteSignInStepUpHandler finishes a two factor sign in by redeeming the
// emailed challenge and handing out the token pair the first leg withheld.
type CompleteSignInStepUpHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	tokens   TokenService
	refresh  *RefreshService
	logger   Logger
}

func NewCompleteSignInStepUpHandler(repo RepositoryManager, verifier *Verifier, tokens TokenService, refresh *RefreshService) *CompleteSignInStepUpHandler {
	return &CompleteSignInStepUpHandler{
		repo:     repo,
		verifier: verifier,
		tokens:   tokens,
		refresh:  refresh,
		logger:   defLogger{},
	}
}

func (h *CompleteSignInStepUpHandler) WithLogger(logger Logger) *CompleteSignInStepUpHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CompleteSignInStepUpHandler) Execute(ctx context.Context, event CompleteSignInStepUpMessage) (*AuthSession, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in step up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompleteSignInStepUpHandler) execute(ctx context.Context, event CompleteSignInStepUpMessage) (*AuthSession, error) {
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

		if acc.Suspended() {
			return errForbidden("Account suspended")
		}

		if _, err := h.verifier.MatchTx(ctx, tx, PurposeSignInStepUp, acc.ID, event.Code); err != nil {
			return err
		}

		return h.verifier.ConsumeTx(ctx, tx, PurposeSignInStepUp, acc.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "sign in step up transaction failed")
	}

	h.logger.Info("CompleteSignInStepUpHandler completed challenge", "id", acc.ID)

	return issueSession(ctx, h.tokens, h.refresh, acc, event.Session)
}
