// Package mail provides best-effort email delivery over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers a single HTML message. Implementations are best-effort:
// callers must never let a delivery failure affect transactional state.
type Sender interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// Options configures the SMTP sender.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender constructs a sender. Auth is skipped when no username is set,
// which keeps local development relays (mailhog and friends) working.
func NewSMTPSender(opts Options) *SMTPSender {
	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		auth: auth,
		from: opts.From,
	}
}

// Send delivers one HTML message to all recipients.
func (s *SMTPSender) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	if err := smtp.SendMail(s.addr, s.auth, s.from, recipients, []byte(b.String())); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
