package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"github.com/operas/contact-relay/internal/config"
)

// SMTPSender implements Sender over an authenticated SMTP session.
// Every call dials a new connection; nothing is pooled or retried.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the relay, upgrades with STARTTLS according to the configured
// policy, authenticates and transmits msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return ErrCredentialsMissing
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	if err := s.dialer(ctx).DialAndSend(msg.build()); err != nil {
		return fmt.Errorf("smtp: failed to send email via %s: %w", s.cfg.Addr(), err)
	}
	return nil
}

// Probe opens a session, negotiates TLS and authenticates, then quits
// without sending anything.
func (s *SMTPSender) Probe(ctx context.Context) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return ErrCredentialsMissing
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	sc, err := s.dialer(ctx).Dial()
	if err != nil {
		return fmt.Errorf("smtp: failed to open session with %s: %w", s.cfg.Addr(), err)
	}
	if err := sc.Close(); err != nil {
		return fmt.Errorf("smtp: failed to close session: %w", err)
	}
	return nil
}

// dialer builds a fresh dialer per call. The mail library caches the chosen
// auth mechanism on the dialer, so it must not be shared between sessions.
func (s *SMTPSender) dialer(ctx context.Context) *mail.Dialer {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}
	d.RetryFailure = false

	switch s.cfg.StartTLS {
	case config.StartTLSOpportunistic:
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	case config.StartTLSNone:
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}

	if s.cfg.Timeout > 0 {
		d.Timeout = s.cfg.Timeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && (d.Timeout == 0 || remaining < d.Timeout) {
			d.Timeout = remaining
		}
	}
	return d
}
