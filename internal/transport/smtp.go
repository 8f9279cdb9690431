package transport

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SMTPTransport sends mail through an SMTP relay.
type SMTPTransport struct {
	address  string // host:port
	host     string // host only, for AUTH
	username string
	password string
}

// NewSMTPTransport creates a transport for the given relay. Username may be
// empty, in which case no AUTH is attempted (local relays, test servers).
func NewSMTPTransport(address, host, username, password string) *SMTPTransport {
	return &SMTPTransport{
		address:  address,
		host:     host,
		username: username,
		password: password,
	}
}

// Send composes and submits the message. The SMTP dial has no native context
// support, so the submission runs in a goroutine and the call returns early
// with the context error when the deadline fires first. An abandoned
// submission finishes (or fails) in the background; its outcome is ignored
// because the message has already been marked failed.
func (t *SMTPTransport) Send(ctx context.Context, from string, recipients []string, subject, body string) error {
	e := email.NewEmail()
	e.From = from
	e.To = recipients
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if t.username != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.Send(t.address, auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send aborted: %w", ctx.Err())
	}
}
