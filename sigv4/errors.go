package sigv4

import (
	"fmt"

	"github.com/vitalvas/reqauth/autherr"
)

// Configuration errors.
var (
	// ErrMissingCredential is returned when the access key, secret key,
	// region or service is empty.
	ErrMissingCredential = fmt.Errorf("%w: sigv4: missing credential field", autherr.ErrConfiguration)

	// ErrInvalidURL is returned when the request URL cannot be parsed or
	// is not absolute.
	ErrInvalidURL = fmt.Errorf("%w: sigv4: invalid request url", autherr.ErrConfiguration)

	// ErrMissingMethod is returned when the HTTP method is empty.
	ErrMissingMethod = fmt.Errorf("%w: sigv4: http method must not be empty", autherr.ErrConfiguration)

	// ErrInvalidSigningTime is returned when the clock yields no usable
	// timestamp.
	ErrInvalidSigningTime = fmt.Errorf("%w: sigv4: invalid signing time", autherr.ErrConfiguration)

	// ErrCredentialProvider is returned when an SDK credentials provider
	// fails.
	ErrCredentialProvider = fmt.Errorf("%w: sigv4: credentials provider failed", autherr.ErrConfiguration)
)

// Encoding errors.
var (
	// ErrInvalidHeader is returned when a header name or value is not a
	// valid HTTP header field.
	ErrInvalidHeader = fmt.Errorf("%w: sigv4: invalid header", autherr.ErrEncoding)
)
