package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RegisterMessage struct {
	FullName        string `json:"full_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	UseHashid       bool   `json:"-"`
}

func (e RegisterMessage) Type() string { return "account.register" }

// RegisterHandler creates an unverified account with its profile and mails
// the initial email verification code. An unverified account squatting on the
// requested email or username is displaced.
type RegisterHandler struct {
	repo     RepositoryManager
	verifier *Verifier
	notifier Notifier
	logger   Logger
}

func NewRegisterHandler(repo RepositoryManager, verifier *Verifier, notifier Notifier) *RegisterHandler {
	return &RegisterHandler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *RegisterHandler) WithLogger(logger Logger) *RegisterHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterHandler) Execute(ctx context.Context, event RegisterMessage) (uuid.UUID, error) {
	select {
	case <-ctx.Done():
		return uuid.Nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterHandler) execute(ctx context.Context, event RegisterMessage) (uuid.UUID, error) {
	input := RegisterInput{
		FullName:        event.FullName,
		Username:        event.Username,
		Email:           event.Email,
		Phone:           event.Phone,
		Password:        event.Password,
		ConfirmPassword: event.ConfirmPassword,
	}
	input.Normalize()

	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	accountID := NewID()
	if event.UseHashid {
		if id, err := DeterministicID(input.Email); err == nil {
			accountID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.displaceByEmail(ctx, tx, input.Email); err != nil {
			return err
		}
		if err := h.displaceByUsername(ctx, tx, input.Username); err != nil {
			return err
		}

		hash, err := HashPassword(input.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		acc := &Account{
			ID:           accountID,
			Email:        input.Email,
			PasswordHash: hash,
			Role:         RoleUser,
			CreatedAt:    time.Now(),
		}
		if _, err := h.repo.Accounts().CreateTx(ctx, tx, acc); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		profile := &Profile{
			ID:         accountID,
			Username:   input.Username,
			FullName:   input.FullName,
			ModifiedAt: time.Now(),
		}
		if input.Phone != "" {
			profile.PhoneNumber = &input.Phone
		}
		if _, err := h.repo.Profiles().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create profile")
		}

		request, err := h.verifier.IssueTx(ctx, tx, PurposeSignUp, accountID)
		if err != nil {
			return err
		}

		if err := h.notifier.SendVerificationEmail(ctx, input.Email, PurposeSignUp, request.Code); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return uuid.Nil, richErr
		}

		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "registration transaction failed")
	}

	h.logger.Info("RegisterHandler created account", "id", accountID)
	return accountID, nil
}

// displaceByEmail rejects a verified holder of the address and removes an
// unverified one so the registration can reuse it.
func (h *RegisterHandler) displaceByEmail(ctx context.Context, tx bun.Tx, email string) error {
	existing, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return wrapStorage(err, "failed to check email availability")
	}

	if existing.EmailVerified {
		return errConflict("Account already exists")
	}

	return h.repo.Accounts().DeleteCascadeTx(ctx, tx, existing.ID)
}

// displaceByUsername does the same for the profile username.
func (h *RegisterHandler) displaceByUsername(ctx context.Context, tx bun.Tx, username string) error {
	profile, err := h.repo.Profiles().GetByUsernameTx(ctx, tx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return wrapStorage(err, "failed to check username availability")
	}

	holder, err := h.repo.Accounts().GetTx(ctx, tx, profile.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return wrapStorage(err, "failed to load username holder")
	}

	if holder.EmailVerified {
		return errConflict("Username already taken")
	}

	return h.repo.Accounts().DeleteCascadeTx(ctx, tx, holder.ID)
}
