package email

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/mail.v2"

	"github.com/operas/contact-relay/internal/config"
)

// ErrCredentialsMissing is returned when the relay has no credentials to
// authenticate with. It is detected before any network call.
var ErrCredentialsMissing = errors.New("email: relay credentials missing")

// Sender is the interface that all email providers must implement.
// Implementations open a fresh session per call and are safe for concurrent use.
type Sender interface {
	// Send delivers msg synchronously and returns once the provider has
	// accepted or rejected it.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	FromName    string // display name in the From header
	FromAddress string // address in the From header, also the envelope sender
	To          string // recipient email address
	ReplyTo     string // Reply-To header, used verbatim
	Subject     string // email subject
	TextBody    string // plain-text body
}

// build renders msg into a MIME message. Headers are written as given;
// the display name is encoded by the mail library when it needs quoting.
func (msg Message) build() *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Reply-To", msg.ReplyTo)
	m.SetBody("text/plain", msg.TextBody)
	return m
}

// NewSender returns the Sender selected by cfg.Mail.Provider.
// The SMTP sender never fails to build; credentials are checked per send.
func NewSender(ctx context.Context, cfg config.Config) (Sender, error) {
	switch cfg.Mail.Provider {
	case config.ProviderGmail:
		if cfg.CredentialsMissing() {
			return nil, ErrCredentialsMissing
		}
		sender, err := NewGmailSender(ctx, cfg.Mail.Gmail, cfg.SMTP.User)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.ProviderSMTP, "":
		return NewSMTPSender(cfg.SMTP), nil
	default:
		return nil, fmt.Errorf("email: unknown provider %q", cfg.Mail.Provider)
	}
}
