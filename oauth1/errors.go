package oauth1

import (
	"fmt"

	"github.com/vitalvas/reqauth/autherr"
)

// Configuration errors.
var (
	// ErrUnsupportedSignatureMethod is returned for signature methods
	// other than HMAC-SHA1 and HMAC-SHA256.
	ErrUnsupportedSignatureMethod = fmt.Errorf("%w: oauth1: unsupported signature method", autherr.ErrConfiguration)

	// ErrMissingConsumerKey is returned when Credentials has no consumer key.
	ErrMissingConsumerKey = fmt.Errorf("%w: oauth1: consumer key must not be empty", autherr.ErrConfiguration)

	// ErrInvalidURL is returned when the request URL cannot be parsed or
	// is not absolute.
	ErrInvalidURL = fmt.Errorf("%w: oauth1: invalid request url", autherr.ErrConfiguration)

	// ErrMissingMethod is returned when the HTTP method is empty.
	ErrMissingMethod = fmt.Errorf("%w: oauth1: http method must not be empty", autherr.ErrConfiguration)

	// ErrRepeatedProtocolParam is returned when a caller supplied oauth_*
	// parameter carries more than one value.
	ErrRepeatedProtocolParam = fmt.Errorf("%w: oauth1: protocol parameter repeated", autherr.ErrConfiguration)
)

// Encoding errors.
var (
	// ErrInvalidHeader is returned when the assembled header is not a
	// valid header value.
	ErrInvalidHeader = fmt.Errorf("%w: oauth1: invalid header value", autherr.ErrEncoding)
)
