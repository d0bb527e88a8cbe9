package account

import "github.com/google/uuid"

// Session keys written by the sign in flows.
const (
	SessionKeyRefreshToken = "refresh_token"
	SessionKeyUserID       = "user_id"
	SessionKeyRole         = "role"
)

// AuthSession is the product of a completed authentication flow.
type AuthSession struct {
	AccountID    uuid.UUID `json:"account_id"`
	Role         Role      `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// SignInResult distinguishes a finished sign in from a 2FA step up. When
// StepUpRequired is set, Session is nil and the caller must complete the
// emailed challenge before tokens are issued.
type SignInResult struct {
	StepUpRequired bool         `json:"step_up_required"`
	Session        *AuthSession `json:"session,omitempty"`
}
