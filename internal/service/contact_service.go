package service

import (
	"context"

	"github.com/operas/contact-relay/internal/config"
	"github.com/operas/contact-relay/internal/email"
	"github.com/operas/contact-relay/internal/logger"
	"github.com/operas/contact-relay/internal/model"
)

// ContactService turns contact submissions into emails and hands them to the relay
type ContactService struct {
	cfg    config.Config
	sender email.Sender
	log    *logger.Logger
}

// NewContactService creates a new ContactService. sender may be nil when the
// relay could not be built for lack of credentials; Submit then reports
// KindConfigMissing.
func NewContactService(cfg config.Config, sender email.Sender, log *logger.Logger) *ContactService {
	return &ContactService{
		cfg:    cfg,
		sender: sender,
		log:    log.WithComponent("contact_service"),
	}
}

// Compose builds the outgoing email for sub
func (s *ContactService) Compose(sub model.ContactSubmission) email.Message {
	return email.Message{
		FromName:    sub.Name,
		FromAddress: s.cfg.SMTP.User,
		To:          s.cfg.Mail.Recipient,
		ReplyTo:     sub.Email,
		Subject:     s.cfg.Mail.SubjectPrefix + sub.Subject,
		TextBody:    email.ContactEmailText(sub.Name, sub.Email, sub.Message),
	}
}

// Submit delivers sub synchronously. Missing credentials are reported before
// any network call; nothing is retried.
func (s *ContactService) Submit(ctx context.Context, sub model.ContactSubmission) email.Result {
	if s.sender == nil || s.cfg.CredentialsMissing() {
		return email.Result{Kind: email.KindConfigMissing, Err: email.ErrCredentialsMissing}
	}

	if err := s.sender.Send(ctx, s.Compose(sub)); err != nil {
		result := email.Failed(err)
		s.log.Debug().
			Err(err).
			Str("kind", result.Kind.String()).
			Msg("relay rejected contact email")
		return result
	}

	return email.Sent()
}
