package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CodeTTL is how long a verification code stays redeemable.
const CodeTTL = 15 * time.Minute

const (
	codeFloor = 100000
	codeSpan  = 900000
)

// Verifier issues, matches and consumes one-time numeric codes. All methods
// are Tx scoped: the orchestrator owns the transaction.
type Verifier struct {
	repo   RepositoryManager
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

func NewVerifier(repo RepositoryManager) *Verifier {
	return &Verifier{
		repo:   repo,
		ttl:    CodeTTL,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (v *Verifier) WithLogger(logger Logger) *Verifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// WithClock overrides the time source. Test seam.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	if now != nil {
		v.now = now
	}
	return v
}

// IssueTx generates a fresh 6-digit code and upserts the single live request
// for (accountID, purpose). Password reset requests additionally get a new
// high-entropy secret key and a cleared validated flag.
func (v *Verifier) IssueTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) (*VerificationRequest, error) {
	code, err := randomCode()
	if err != nil {
		return nil, wrapStorage(err, "failed to generate verification code")
	}

	request := &VerificationRequest{
		ID:        NewID(),
		AccountID: accountID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: v.now().Add(v.ttl).UnixMilli(),
	}

	if purpose == PurposePasswordReset {
		request.SecretKey = newSecretKey()
	}

	if err := v.repo.Verifications().SaveTx(ctx, tx, request); err != nil {
		return nil, wrapStorage(err, "failed to store verification request")
	}

	return request, nil
}

// MatchTx resolves the live request for (accountID, purpose) and checks the
// supplied code. For password resets a successful match also flips the
// code-validated flag so the final reset call can require it.
func (v *Verifier) MatchTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID, code string) (*VerificationRequest, error) {
	request, err := v.repo.Verifications().GetLiveTx(ctx, tx, purpose, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errNotFound("Validation request not found")
		}
		return nil, wrapStorage(err, "failed to retrieve verification request")
	}

	if request.ExpiredAt(v.now()) {
		return nil, errCodeExpired("Validation code expired")
	}

	if subtle.ConstantTimeCompare([]byte(request.Code), []byte(code)) != 1 {
		return nil, errCodeMismatch("Validation code incorrect")
	}

	if purpose == PurposePasswordReset && !request.CodeValidated {
		if err := v.repo.Verifications().MarkCodeValidatedTx(ctx, tx, request.ID); err != nil {
			return nil, wrapStorage(err, "failed to mark reset code validated")
		}
		request.CodeValidated = true
	}

	return request, nil
}

// ConsumeTx deletes every live request for (accountID, purpose).
func (v *Verifier) ConsumeTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) error {
	if err := v.repo.Verifications().DeleteForAccountTx(ctx, tx, purpose, accountID); err != nil {
		return wrapStorage(err, "failed to consume verification request")
	}
	return nil
}

// randomCode returns a uniformly random code in [100000, 999999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeFloor, 10), nil
}

// newSecretKey binds the reset flow's second step. It is returned in-session
// only, never emailed, so a leaked code alone cannot complete a reset.
func newSecretKey() string {
	return NewID().String() + "-" + NewID().String() + "-" + NewID().String()
}
