package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender is the outbound transport boundary. The core only needs to hand
// over an assembled message; provider specifics live behind this interface.
type Sender interface {
	Send(ctx context.Context, from string, to []string, subject, html string) error
}

// NoopSender is a Sender that does nothing, for deployments without an
// outbound transport configured.
type NoopSender struct{}

func (n *NoopSender) Send(_ context.Context, _ string, _ []string, _, _ string) error {
	return nil
}

// SMTPSender delivers outbound mail over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (s *SMTPSender) Send(_ context.Context, from string, to []string, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail via smtp: %w", err)
	}
	return nil
}
