package digestauth

import (
	"fmt"

	"github.com/vitalvas/reqauth/autherr"
)

// Configuration errors.
var (
	// ErrMissingField is returned when a required credential field is
	// empty.
	ErrMissingField = fmt.Errorf("%w: digestauth: missing required field", autherr.ErrConfiguration)

	// ErrUnsupportedAlgorithm is returned for algorithms other than MD5,
	// MD5-sess, SHA-256 and SHA-256-sess.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: digestauth: unsupported algorithm", autherr.ErrConfiguration)

	// ErrUnsupportedQOP is returned for qop values other than auth and
	// auth-int.
	ErrUnsupportedQOP = fmt.Errorf("%w: digestauth: unsupported qop", autherr.ErrConfiguration)
)

// Encoding errors.
var (
	// ErrInvalidValue is returned when a field cannot be embedded in a
	// quoted header parameter.
	ErrInvalidValue = fmt.Errorf("%w: digestauth: value not representable in header", autherr.ErrEncoding)
)

// Challenge errors.
var (
	// ErrNoChallenge is returned when no Digest challenge is present.
	ErrNoChallenge = fmt.Errorf("%w: digestauth: no digest challenge", autherr.ErrConfiguration)

	// ErrMalformedChallenge is returned when a Digest challenge cannot be
	// parsed or lacks realm or nonce.
	ErrMalformedChallenge = fmt.Errorf("%w: digestauth: malformed challenge", autherr.ErrConfiguration)
)
