package oauth2flow

import (
	"fmt"

	"github.com/vitalvas/reqauth/autherr"
)

var (
	// ErrMissingClientID is returned when Config.ClientID is empty.
	ErrMissingClientID = fmt.Errorf("%w: oauth2: client id is required", autherr.ErrConfiguration)

	// ErrMissingClientSecret is returned by grants that require a client
	// secret when none is configured.
	ErrMissingClientSecret = fmt.Errorf("%w: oauth2: client secret is required", autherr.ErrConfiguration)

	// ErrMissingEndpoint is returned when the endpoint a grant needs is not
	// configured.
	ErrMissingEndpoint = fmt.Errorf("%w: oauth2: endpoint is required", autherr.ErrConfiguration)

	// ErrMissingRefreshToken is returned by Refresh for an empty token.
	ErrMissingRefreshToken = fmt.Errorf("%w: oauth2: refresh token is required", autherr.ErrConfiguration)

	// ErrStateMismatch is returned when the callback state differs from
	// the one issued with the authorization URL.
	ErrStateMismatch = fmt.Errorf("%w: oauth2: state mismatch", autherr.ErrProtocolMismatch)
)
