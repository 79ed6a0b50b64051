package email_test

import (
	"context"
	"io"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operas/contact-relay/internal/config"
	"github.com/operas/contact-relay/internal/email"
	"github.com/operas/contact-relay/internal/email/emailtest"
)

func testMessage() email.Message {
	return email.Message{
		FromName:    "Alice",
		FromAddress: "relay@example.com",
		To:          "me@operas.pt",
		ReplyTo:     "alice@example.com",
		Subject:     "me@operas.pt | Contact | Hi",
		TextBody:    email.ContactEmailText("Alice", "alice@example.com", "Hello there"),
	}
}

func readBody(t *testing.T, msg *mail.Message) string {
	t.Helper()

	var r io.Reader = msg.Body
	if strings.EqualFold(msg.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return strings.ReplaceAll(string(body), "\r\n", "\n")
}

func TestSMTPSender_Send(t *testing.T) {
	t.Parallel()

	srv := emailtest.NewServer(t, "relay@example.com", "secret")
	sender := email.NewSMTPSender(srv.Config())

	require.NoError(t, sender.Send(context.Background(), testMessage()))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, srv.Logins())
	assert.Equal(t, "relay@example.com", msgs[0].From)
	assert.Equal(t, []string{"me@operas.pt"}, msgs[0].To)

	parsed := msgs[0].Parse(t)

	from, err := mail.ParseAddress(parsed.Header.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", from.Name)
	assert.Equal(t, "relay@example.com", from.Address)

	assert.Equal(t, "me@operas.pt", parsed.Header.Get("To"))
	assert.Equal(t, "me@operas.pt | Contact | Hi", parsed.Header.Get("Subject"))
	assert.Equal(t, "alice@example.com", parsed.Header.Get("Reply-To"))
	assert.Contains(t, parsed.Header.Get("Content-Type"), "text/plain")

	body := readBody(t, parsed)
	assert.Contains(t, body, "Name: Alice")
	assert.Contains(t, body, "Email: alice@example.com")
	assert.Contains(t, body, "Message:")
	assert.Contains(t, body, "Hello there")
}

func TestSMTPSender_SessionPerSend(t *testing.T) {
	t.Parallel()

	srv := emailtest.NewServer(t, "relay@example.com", "secret")
	sender := email.NewSMTPSender(srv.Config())

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	require.NoError(t, sender.Send(context.Background(), testMessage()))

	assert.Len(t, srv.Messages(), 2)
	assert.Equal(t, 2, srv.Logins())
}

func TestSMTPSender_Failures(t *testing.T) {
	t.Parallel()

	t.Run("credentials missing", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		cfg := srv.Config()
		cfg.Password = ""

		err := email.NewSMTPSender(cfg).Send(context.Background(), testMessage())
		require.ErrorIs(t, err, email.ErrCredentialsMissing)
		assert.Equal(t, email.KindConfigMissing, email.Classify(err))
		assert.Zero(t, srv.Logins())
		assert.Empty(t, srv.Messages())
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		cfg := srv.Config()
		cfg.Password = "wrong"

		err := email.NewSMTPSender(cfg).Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Equal(t, email.KindAuthError, email.Classify(err))
		assert.Empty(t, srv.Messages())
	})

	t.Run("starttls required but not offered", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		cfg := srv.Config()
		cfg.StartTLS = config.StartTLSMandatory

		err := email.NewSMTPSender(cfg).Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Equal(t, email.KindTransportError, email.Classify(err))
		assert.Zero(t, srv.Logins())
	})

	t.Run("recipient rejected", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		srv.RejectRecipients()

		err := email.NewSMTPSender(srv.Config()).Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Equal(t, email.KindUnknown, email.Classify(err))
		assert.Empty(t, srv.Messages())
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := l.Addr().(*net.TCPAddr).Port
		require.NoError(t, l.Close())

		cfg := config.SMTPConfig{
			Host:     "127.0.0.1",
			Port:     port,
			User:     "relay@example.com",
			Password: "secret",
			StartTLS: config.StartTLSOpportunistic,
			Timeout:  2 * time.Second,
		}

		err = email.NewSMTPSender(cfg).Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Equal(t, email.KindTransportError, email.Classify(err))
	})

	t.Run("context cancelled", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := email.NewSMTPSender(srv.Config()).Send(ctx, testMessage())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, email.KindTransportError, email.Classify(err))
		assert.Zero(t, srv.Logins())
	})
}

func TestSMTPSender_Probe(t *testing.T) {
	t.Parallel()

	t.Run("authenticates without sending", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")

		require.NoError(t, email.NewSMTPSender(srv.Config()).Probe(context.Background()))
		assert.Equal(t, 1, srv.Logins())
		assert.Empty(t, srv.Messages())
	})

	t.Run("reports auth failure", func(t *testing.T) {
		t.Parallel()

		srv := emailtest.NewServer(t, "relay@example.com", "secret")
		cfg := srv.Config()
		cfg.User = "someone@example.com"

		err := email.NewSMTPSender(cfg).Probe(context.Background())
		require.Error(t, err)
		assert.Equal(t, email.KindAuthError, email.Classify(err))
	})
}
