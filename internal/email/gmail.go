package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/operas/contact-relay/internal/config"
)

// GmailSender implements Sender using the Gmail API.
type GmailSender struct {
	service       *gmail.Service
	senderAddress string
}

// NewGmailSender creates a new GmailSender.
// OAuth2 client credentials with a refresh token take precedence; otherwise
// a service account credentials JSON with domain-wide delegation is used to
// impersonate senderAddress.
func NewGmailSender(ctx context.Context, cfg config.GmailConfig, senderAddress string) (*GmailSender, error) {
	if senderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
		opts = append(opts, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		jwtConfig.Subject = senderAddress
		opts = append(opts, option.WithHTTPClient(jwtConfig.Client(ctx)))
	default:
		return nil, ErrCredentialsMissing
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return newGmailSenderWithService(svc, senderAddress), nil
}

func newGmailSenderWithService(svc *gmail.Service, senderAddress string) *GmailSender {
	return &GmailSender{
		service:       svc,
		senderAddress: senderAddress,
	}
}

// Send sends an email via the Gmail API.
func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	if msg.FromAddress == "" {
		msg.FromAddress = g.senderAddress
	}

	var raw bytes.Buffer
	if _, err := msg.build().WriteTo(&raw); err != nil {
		return fmt.Errorf("gmail: failed to render message: %w", err)
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw.Bytes()),
	}

	_, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}

	return nil
}
