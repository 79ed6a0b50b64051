// Package emailtest provides an in-process SMTP relay for tests.
package emailtest

import (
	"bytes"
	"io"
	"log"
	"net"
	"net/mail"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"github.com/operas/contact-relay/internal/config"
)

// Message is one message accepted by the Server.
type Message struct {
	From string
	To   []string
	Data []byte
}

// Parse parses the accepted message data.
func (m Message) Parse(t testing.TB) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(bytes.NewReader(m.Data))
	require.NoError(t, err)
	return msg
}

// Server is a plaintext SMTP relay on 127.0.0.1 that requires AUTH PLAIN
// with fixed credentials and records every accepted message.
type Server struct {
	Host     string
	Port     int
	User     string
	Password string

	mu         sync.Mutex
	messages   []Message
	logins     int
	rejectRcpt bool
}

// NewServer starts a Server that is shut down when the test ends.
func NewServer(t testing.TB, user, password string) *Server {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &Server{
		Host:     "127.0.0.1",
		Port:     l.Addr().(*net.TCPAddr).Port,
		User:     user,
		Password: password,
	}

	srv := smtp.NewServer(&backend{s: s})
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ErrorLog = log.New(io.Discard, "", 0)

	go srv.Serve(l)
	t.Cleanup(func() { _ = srv.Close() })

	return s
}

// Config returns relay settings pointing at s. STARTTLS is opportunistic
// since s does not offer it.
func (s *Server) Config() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		StartTLS: config.StartTLSOpportunistic,
	}
}

// Messages returns a copy of the accepted messages.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// RejectRecipients makes every following RCPT command fail with 550.
func (s *Server) RejectRecipients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRcpt = true
}

// Logins returns the number of successful authentications.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

type backend struct {
	s *Server
}

func (b *backend) Login(state *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	if username != b.s.User || password != b.s.Password {
		return nil, &smtp.SMTPError{
			Code:         535,
			EnhancedCode: smtp.EnhancedCode{5, 7, 8},
			Message:      "Authentication failed",
		}
	}

	b.s.mu.Lock()
	b.s.logins++
	b.s.mu.Unlock()

	return &session{s: b.s}, nil
}

func (b *backend) AnonymousLogin(state *smtp.ConnectionState) (smtp.Session, error) {
	return nil, &smtp.SMTPError{
		Code:         530,
		EnhancedCode: smtp.EnhancedCode{5, 7, 0},
		Message:      "Authentication required",
	}
}

type session struct {
	s    *Server
	from string
	to   []string
}

func (ss *session) Mail(from string, opts smtp.MailOptions) error {
	ss.from = from
	return nil
}

func (ss *session) Rcpt(to string) error {
	ss.s.mu.Lock()
	reject := ss.s.rejectRcpt
	ss.s.mu.Unlock()

	if reject {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Mailbox unavailable",
		}
	}
	ss.to = append(ss.to, to)
	return nil
}

func (ss *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	ss.s.mu.Lock()
	ss.s.messages = append(ss.s.messages, Message{From: ss.from, To: ss.to, Data: data})
	ss.s.mu.Unlock()
	return nil
}

func (ss *session) Reset() {
	ss.from = ""
	ss.to = nil
}

func (ss *session) Logout() error {
	return nil
}
