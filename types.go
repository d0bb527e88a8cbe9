package account

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Notifier delivers out-of-band messages. The core calls it inside a flow's
// transactional scope: a delivery error aborts the flow so a stored code
// never exists without its notification, and vice versa.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, address string, purpose VerificationPurpose, code string) error
	SendPushNotification(ctx context.Context, token, title, body string, data map[string]string) error
}

// SessionStore is the caller's per-request session, an external collaborator.
// Sign in writes refresh_token/user_id/role into it; sign out purges it.
type SessionStore interface {
	Insert(key string, value any) error
	Purge() error
}

// NoopNotifier discards every notification. Useful in tests and for callers
// that deliver through their own channel.
type NoopNotifier struct{}

func (NoopNotifier) SendVerificationEmail(context.Context, string, VerificationPurpose, string) error {
	return nil
}

func (NoopNotifier) SendPushNotification(context.Context, string, string, string, map[string]string) error {
	return nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
