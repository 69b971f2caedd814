package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"course-enrollment-service/internal/config"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type smtpMailerImpl struct {
	addr   string
	auth   smtp.Auth
	sender string
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP
// host is configured.
func NewMailer(cfg *config.SMTP, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &logMailerImpl{logger: logger}
	}

	sender := cfg.Sender
	if sender == "" {
		sender = "no-reply@localhost"
		logger.Warn("SMTP_SENDER not set, using default sender", "sender", sender)
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpMailerImpl{
		addr:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		auth:   auth,
		sender: sender,
	}
}

func (m *smtpMailerImpl) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.sender, to, subject, htmlBody)
	if err := smtp.SendMail(m.addr, m.auth, m.sender, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

type logMailerImpl struct {
	logger *slog.Logger
}

func (m *logMailerImpl) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.InfoContext(ctx, "smtp not configured, email not sent", "to", to, "subject", subject)
	return nil
}
