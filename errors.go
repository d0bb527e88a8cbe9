package account

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients. Stable identifiers, safe to match on.
const (
	TextCodeTokenExpired    = "TOKEN_EXPIRED"
	TextCodeTokenMalformed  = "TOKEN_MALFORMED"
	TextCodeCodeExpired     = "CODE_EXPIRED"
	TextCodeCodeMismatch    = "CODE_MISMATCH"
	TextCodeTokenBlocked    = "TOKEN_BLOCKED"
	TextCodeAccountConflict = "ACCOUNT_CONFLICT"
)

// ErrTokenExpired is returned when an access token is past its deadline.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens that fail signature or shape checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

func errNotFound(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

func errConflict(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeAccountConflict)
}

func errForbidden(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden)
}

func errCodeExpired(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeCodeExpired)
}

func errCodeMismatch(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeCodeMismatch)
}

func errValidation(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest)
}

// wrapStorage wraps storage failures so callers surface a 500 without detail.
func wrapStorage(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// wrapTransport wraps notifier failures; the owning transaction aborts.
func wrapTransport(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg)
}

// IsExpiredCode checks for the expired-code text code.
func IsExpiredCode(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeCodeExpired
	}
	return false
}

// IsMismatchedCode checks for the mismatched-code text code.
func IsMismatchedCode(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeCodeMismatch
	}
	return false
}

// MessageFromError extracts the client-safe message for a flow error. Wrapped
// causes and unknown errors never reach the response body.
func MessageFromError(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return "internal server error"
}

// StatusFromError maps a flow error to an HTTP status. Unknown errors map to
// 500 so no internal detail leaks.
func StatusFromError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
