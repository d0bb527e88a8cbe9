package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Gender is an optional profile attribute
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOthers Gender = "others"
)

// Account is the credential record. It carries everything needed to
// authenticate a principal; presentation data lives on Profile.
type Account struct {
	bun.BaseModel      `bun:"table:account_core,alias:acc"`
	ID                 uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email_address,notnull,unique" json:"email_address,omitempty"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	EmailVerified      bool       `bun:"email_verified,notnull" json:"email_verified"`
	Role               Role       `bun:"account_role,notnull" json:"account_role,omitempty"`
	TwoFactorEnabled   bool       `bun:"two_factor_enabled,notnull" json:"two_factor_enabled"`
	TwoFactorUpdatedAt *time.Time `bun:"two_factor_updated_at,nullzero" json:"two_factor_updated_at,omitempty"`
	CreatedAt          time.Time  `bun:"created_at,notnull" json:"created_at,omitempty"`
	SuspendedAt        *time.Time `bun:"suspended_at,nullzero" json:"suspended_at,omitempty"`
	SuspendedBy        *uuid.UUID `bun:"suspended_by,nullzero,type:uuid" json:"suspended_by,omitempty"`
}

// Suspended reports whether the account has been suspended by an operator.
func (a *Account) Suspended() bool {
	return a.SuspendedAt != nil
}

// Profile is the 1:1 presentation record for an Account, sharing its id.
type Profile struct {
	bun.BaseModel   `bun:"table:account_profile,alias:prf"`
	ID              uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Username        string     `bun:"username,notnull,unique" json:"username,omitempty"`
	FullName        string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	PhoneNumber     *string    `bun:"phone_number,nullzero" json:"phone_number,omitempty"`
	DateOfBirth     *time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	Gender          *Gender    `bun:"gender,nullzero" json:"gender,omitempty"`
	ProfilePicture  *string    `bun:"profile_picture,nullzero" json:"profile_picture,omitempty"`
	Biography       *string    `bun:"biography,nullzero" json:"biography,omitempty"`
	ProfileVerified bool       `bun:"profile_verified,notnull" json:"profile_verified"`
	ModifiedAt      time.Time  `bun:"modified_at,notnull" json:"modified_at,omitempty"`
}

// VerificationPurpose tags the single live VerificationRequest an account may
// hold per flow.
type VerificationPurpose string

const (
	// PurposeSignUp guards initial email verification.
	PurposeSignUp VerificationPurpose = "sign_up"
	// PurposeSignInStepUp guards the second factor of a 2FA sign in.
	PurposeSignInStepUp VerificationPurpose = "sign_in"
	// PurposePasswordReset guards the reset-code / secret-key exchange.
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// VerificationRequest is a one-time numeric challenge. At most one live row
// exists per (account, purpose); reissuing overwrites in place. The secret
// key and code-validated flag are only meaningful for PurposePasswordReset.
type VerificationRequest struct {
	bun.BaseModel `bun:"table:verification_request,alias:vrq"`
	ID            uuid.UUID           `bun:"id,pk,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID           `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Purpose       VerificationPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	Code          string              `bun:"code,notnull" json:"-"`
	SecretKey     string              `bun:"secret_key,nullzero" json:"-"`
	CodeValidated bool                `bun:"code_validated,notnull" json:"code_validated"`
	// ExpiresAt is absolute epoch milliseconds.
	ExpiresAt int64 `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// ExpiredAt reports whether the request is past its deadline at the given
// instant. Requests expiring exactly now count as expired.
func (r *VerificationRequest) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt <= now.UnixMilli()
}

// TokenStatus is the server side state of a refresh token row.
type TokenStatus string

const (
	TokenActive  TokenStatus = "Active"
	TokenBlocked TokenStatus = "Blocked"
)

// RefreshToken is the single stateful token row per issuer (account id).
// Rotation overwrites the token string; blocking flips status. Rows are never
// deleted independently of the account.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_token,alias:rtk"`
	Issuer        uuid.UUID   `bun:"issuer,pk,type:uuid" json:"issuer,omitempty"`
	Token         string      `bun:"token,notnull,unique" json:"token,omitempty"`
	Status        TokenStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"created_at,omitempty"`
	ModifiedAt    *time.Time  `bun:"modified_at,nullzero" json:"modified_at,omitempty"`
}
