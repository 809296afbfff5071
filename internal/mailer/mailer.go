package mailer

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/network-ticketing/internal/config"
)

// Mailer sends plain-text email. Implementations are best-effort; callers
// must never let a send failure affect the operation that triggered it.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// SMTPMailer sends through an SMTP relay via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from notification config.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
	}
}

// Send delivers one message to all recipients.
func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// LogMailer records outbound mail instead of sending it. Used when no SMTP
// host is configured and in tests.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds the logging fallback.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message envelope.
func (m *LogMailer) Send(to []string, subject, body string) error {
	m.logger.Info("email (not sent: smtp not configured)",
		zap.Strings("to", to),
		zap.String("subject", subject))
	return nil
}

// FromConfig picks SMTP when a host is configured, otherwise the log fallback.
func FromConfig(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}
