package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type SignInMessage struct {
	// Identifier is an email address or a profile username.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`

	// Session is the caller's per-request session store. Optional.
	Session SessionStore `json:"-"`
}

func (e SignInMessage) Type() string { return "account.sign_in" }

// SignInHandler authenticates a password sign in. Accounts with two factor
// enabled get an emailed step up challenge instead of tokens; the flow then
// finishes through CompleteSignInStepUpHandler.
//
// An unverified account is deleted on sight and reported as not found, so an
// abandoned registration neither blocks the address nor leaks its existence.
type SignInHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	tokens   TokenService
	refresh  *RefreshService
	notifier Notifier
	logger   Logger
}

func NewSignInHandler(repo RepositoryManager, verifier *Verifier, tokens TokenService, refresh *RefreshService, notifier Notifier) *SignInHandler {
	return &SignInHandler{
		repo:     repo,
		verifier: verifier,
		tokens:   tokens,
		refresh:  refresh,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *SignInHandler) WithLogger(logger Logger) *SignInHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignInHandler) Execute(ctx context.Context, event SignInMessage) (*SignInResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignInHandler) execute(ctx context.Context, event SignInMessage) (*SignInResult, error) {
	identifier := strings.ToLower(strings.TrimSpace(event.Identifier))
	if err := requireFields(map[string]string{"identifier": identifier, "password": event.Password}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result := &SignInResult{}
	acc := &Account{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		acc, err = h.resolveAccount(ctx, tx, identifier)
		if err != nil {
			return err
		}

		if !acc.EmailVerified {
			if err := h.repo.Accounts().DeleteCascadeTx(ctx, tx, acc.ID); err != nil {
				return wrapStorage(err, "failed to remove unverified account")
			}
			return errNotFound("Account not found")
		}

		if acc.Suspended() {
			return errForbidden("Account suspended")
		}

		if err := ComparePasswordAndHash(event.Password, acc.PasswordHash); err != nil {
			return err
		}

		if acc.TwoFactorEnabled {
			request, err := h.verifier.IssueTx(ctx, tx, PurposeSignInStepUp, acc.ID)
			if err != nil {
				return err
			}
			result.StepUpRequired = true
			return h.notifier.SendVerificationEmail(ctx, acc.Email, PurposeSignInStepUp, request.Code)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "sign in transaction failed")
	}

	if result.StepUpRequired {
		h.logger.Info("SignInHandler issued step up challenge", "id", acc.ID)
		return result, nil
	}

	session, err := issueSession(ctx, h.tokens, h.refresh, acc, event.Session)
	if err != nil {
		return nil, err
	}

	result.Session = session
	return result, nil
}

// resolveAccount tries the identifier as an email first, then as a profile
// username. Both misses collapse into the same not found error.
func (h *SignInHandler) resolveAccount(ctx context.Context, tx bun.Tx, identifier string) (*Account, error) {
	acc, err := h.repo.Accounts().GetByEmailTx(ctx, tx, identifier)
	if err == nil {
		return acc, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, wrapStorage(err, "failed to load account")
	}

	profile, err := h.repo.Profiles().GetByUsernameTx(ctx, tx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errNotFound("Account not found")
		}
		return nil, wrapStorage(err, "failed to load profile")
	}

	acc, err = h.repo.Accounts().GetTx(ctx, tx, profile.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errNotFound("Account not found")
		}
		return nil, wrapStorage(err, "failed to load account")
	}

	return acc, nil
}

// issueSession mints the token pair and mirrors it into the caller's session
// store when one is attached.
func issueSession(ctx context.Context, tokens TokenService, refresh *RefreshService, acc *Account, store SessionStore) (*AuthSession, error) {
	accessToken, err := tokens.Generate(acc.ID, acc.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := refresh.IssueOrRotate(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	if store != nil {
		for key, value := range map[string]any{
			SessionKeyRefreshToken: refreshToken,
			SessionKeyUserID:       acc.ID.String(),
			SessionKeyRole:         string(acc.Role),
		} {
			if err := store.Insert(key, value); err != nil {
				return nil, wrapTransport(err, "failed to persist session")
			}
		}
	}

	return &AuthSession{
		AccountID:    acc.ID,
		Role:         acc.Role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
