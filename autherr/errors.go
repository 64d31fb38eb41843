package autherr

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories.
var (
	// ErrConfiguration is returned for unusable credential configuration:
	// unsupported signature methods, missing secrets, malformed fields.
	ErrConfiguration = errors.New("reqauth: configuration error")

	// ErrEncoding is returned when a value cannot be represented as a
	// valid header value or quoted-string.
	ErrEncoding = errors.New("reqauth: encoding error")

	// ErrProtocolMismatch is returned when the state returned by an
	// authorization server does not match the one issued.
	ErrProtocolMismatch = errors.New("reqauth: protocol mismatch")

	// ErrUpstream is returned when an authorization server cannot be
	// reached or rejects a request.
	ErrUpstream = errors.New("reqauth: upstream error")

	// ErrMalformedCallback is returned when a redirect callback URL lacks
	// the code or state parameter.
	ErrMalformedCallback = errors.New("reqauth: malformed callback")
)

// UpstreamError describes a failed call to an authorization server.
type UpstreamError struct {
	// Op names the grant being performed, e.g. "authorization_code".
	Op string

	// StatusCode is the HTTP status returned by the server, zero when no
	// response was received.
	StatusCode int

	// ErrorCode and Description carry the RFC 6749 Section 5.2 error
	// response fields when the server sent them.
	ErrorCode   string
	Description string

	// Body is the raw response body.
	Body []byte

	// Err is the underlying cause.
	Err error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder

	b.WriteString("reqauth: ")
	b.WriteString(e.Op)
	b.WriteString(" request failed")

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " with status %d", e.StatusCode)
	}

	if e.ErrorCode != "" {
		b.WriteString(": ")
		b.WriteString(e.ErrorCode)

		if e.Description != "" {
			b.WriteString(" (")
			b.WriteString(e.Description)
			b.WriteString(")")
		}
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap exposes both the ErrUpstream category and the underlying cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}

	return []error{ErrUpstream, e.Err}
}
