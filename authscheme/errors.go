package authscheme

import (
	"fmt"

	"github.com/vitalvas/reqauth/autherr"
)

// Configuration errors.
var (
	// ErrUnknownScheme is returned for an unrecognised type tag.
	ErrUnknownScheme = fmt.Errorf("%w: authscheme: unknown scheme", autherr.ErrConfiguration)

	// ErrInvalidAuthData is returned when the scheme payload is not a JSON
	// object.
	ErrInvalidAuthData = fmt.Errorf("%w: authscheme: invalid auth data", autherr.ErrConfiguration)

	// ErrMissingField is returned when a field the scheme requires is
	// empty.
	ErrMissingField = fmt.Errorf("%w: authscheme: missing required field", autherr.ErrConfiguration)

	// ErrInvalidLocation is returned for an API key location other than
	// header or query.
	ErrInvalidLocation = fmt.Errorf("%w: authscheme: invalid api key location", autherr.ErrConfiguration)

	// ErrInvalidRequest is returned when the request URL cannot be parsed.
	ErrInvalidRequest = fmt.Errorf("%w: authscheme: invalid request", autherr.ErrConfiguration)

	// ErrUnknownProfile is returned when a profile name is not defined.
	ErrUnknownProfile = fmt.Errorf("%w: authscheme: unknown profile", autherr.ErrConfiguration)

	// ErrInvalidProfiles is returned when a profiles file cannot be
	// decoded.
	ErrInvalidProfiles = fmt.Errorf("%w: authscheme: invalid profiles file", autherr.ErrConfiguration)
)

// Encoding errors.
var (
	// ErrInvalidHeader is returned when a credential cannot be carried in
	// a header.
	ErrInvalidHeader = fmt.Errorf("%w: authscheme: invalid header", autherr.ErrEncoding)
)
