package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingFields is returned when the body is not a JSON object carrying
// every required key. Malformed JSON is reported the same way.
var ErrMissingFields = errors.New("missing required fields")

// RequiredFields lists the keys a contact submission must carry
var RequiredFields = []string{"name", "email", "subject", "message"}

// ContactSubmission is one contact form submission. All fields are caller
// supplied and untrusted; only their presence is checked.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// DecodeContactSubmission reads a JSON object from r and checks that every
// required key is present. Values are not checked for emptiness or type:
// strings are used verbatim and any other JSON value is kept as its JSON text.
func DecodeContactSubmission(r io.Reader) (*ContactSubmission, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMissingFields)
	}
	// a literal null decodes into a nil map
	if fields == nil {
		return nil, ErrMissingFields
	}

	for _, key := range RequiredFields {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFields, key)
		}
	}

	return &ContactSubmission{
		Name:    fieldText(fields["name"]),
		Email:   fieldText(fields["email"]),
		Subject: fieldText(fields["subject"]),
		Message: fieldText(fields["message"]),
	}, nil
}

func fieldText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
