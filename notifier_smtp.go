package account

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gofiber/template/django/v3"
)

// Sender delivers a fully assembled mail message. The default implementation
// uses net/smtp; tests swap in a recorder.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPConfig carries the upstream relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

func (s smtpSender) Send(_ context.Context, from string, to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	return smtp.SendMail(addr, auth, from, to, msg)
}

// EmailNotifier renders verification emails from HTML templates and hands
// them to a Sender. Implements Notifier.
type EmailNotifier struct {
	cfg    SMTPConfig
	engine *django.Engine
	sender Sender
	logger Logger
}

func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	engine := django.NewFileSystem(http.FS(emailTemplatesFS()), ".html")
	if err := engine.Load(); err != nil {
		return nil, wrapTransport(err, "failed to load email templates")
	}

	return &EmailNotifier{
		cfg:    cfg,
		engine: engine,
		sender: smtpSender{cfg: cfg},
		logger: defLogger{},
	}, nil
}

func (n *EmailNotifier) WithSender(sender Sender) *EmailNotifier {
	if sender != nil {
		n.sender = sender
	}
	return n
}

func (n *EmailNotifier) WithLogger(logger Logger) *EmailNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// SendVerificationEmail renders the template for the given purpose and mails
// the one-time code to the address.
func (n *EmailNotifier) SendVerificationEmail(ctx context.Context, address string, purpose VerificationPurpose, code string) error {
	template, subject, err := emailTemplate(purpose)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := n.engine.Render(&body, template, map[string]any{
		"code": code,
	}); err != nil {
		return wrapTransport(err, "failed to render email body")
	}

	msg := buildMessage(n.cfg.From, address, subject, body.String())

	if err := n.sender.Send(ctx, n.cfg.From, []string{address}, msg); err != nil {
		n.logger.Error("EmailNotifier failed to deliver message", "to", address, "purpose", purpose)
		return wrapTransport(err, "failed to send verification email")
	}

	n.logger.Info("EmailNotifier delivered verification email", "to", address, "purpose", purpose)
	return nil
}

// SendPushNotification is a stub until a push provider is wired in.
func (n *EmailNotifier) SendPushNotification(ctx context.Context, token, title, body string, data map[string]string) error {
	n.logger.Debug("EmailNotifier dropping push notification", "title", title)
	return nil
}

func emailTemplate(purpose VerificationPurpose) (string, string, error) {
	switch purpose {
	case PurposeSignUp:
		return "sign_up", "Verify your email address", nil
	case PurposeSignInStepUp:
		return "sign_in", "Your sign in verification code", nil
	case PurposePasswordReset:
		return "password_reset", "Reset your password", nil
	default:
		return "", "", errValidation(fmt.Sprintf("unknown verification purpose: %s", purpose))
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var _ Notifier = (*EmailNotifier)(nil)
