package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/textproto"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"gopkg.in/mail.v2"
)

// Kind tags the outcome of one delivery attempt.
type Kind int

const (
	KindSent Kind = iota
	KindConfigMissing
	KindTransportError
	KindAuthError
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindConfigMissing:
		return "config_missing"
	case KindTransportError:
		return "transport_error"
	case KindAuthError:
		return "auth_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one delivery attempt. Err is nil only for KindSent.
type Result struct {
	Kind Kind
	Err  error
}

// Sent returns a successful Result.
func Sent() Result {
	return Result{Kind: KindSent}
}

// Failed returns a Result tagged with the kind Classify assigns to err.
func Failed(err error) Result {
	if err == nil {
		return Sent()
	}
	return Result{Kind: Classify(err), Err: err}
}

// OK reports whether the relay accepted the message.
func (r Result) OK() bool {
	return r.Kind == KindSent
}

// Classify maps a sender error to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindSent
	}
	if errors.Is(err, ErrCredentialsMissing) {
		return KindConfigMissing
	}

	// the mail library wraps per-message failures without Unwrap
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && sendErr.Cause != nil {
		err = sendErr.Cause
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535, 538:
			return KindAuthError
		}
		return KindUnknown
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return KindAuthError
		}
		return KindUnknown
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return KindAuthError
	}

	var (
		startTLSErr  mail.StartTLSUnsupportedError
		certErr      *tls.CertificateVerificationError
		hostErr      x509.HostnameError
		authorityErr x509.UnknownAuthorityError
		recordErr    tls.RecordHeaderError
		netErr       net.Error
	)
	switch {
	case errors.As(err, &startTLSErr),
		errors.As(err, &certErr),
		errors.As(err, &hostErr),
		errors.As(err, &authorityErr),
		errors.As(err, &recordErr),
		errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransportError
	}

	return KindUnknown
}
