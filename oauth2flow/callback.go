package oauth2flow

import (
	"fmt"
	"net/url"

	"github.com/vitalvas/reqauth/autherr"
)

// ParseCallback extracts the code and state query parameters from a
// provider redirect URL. Both must be present and non-empty.
func ParseCallback(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", autherr.ErrMalformedCallback, err)
	}

	q := u.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		if desc := q.Get("error_description"); desc != "" {
			return "", "", fmt.Errorf("%w: provider returned %s (%s)", autherr.ErrMalformedCallback, providerErr, desc)
		}

		return "", "", fmt.Errorf("%w: provider returned %s", autherr.ErrMalformedCallback, providerErr)
	}

	code := q.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("%w: code parameter not found", autherr.ErrMalformedCallback)
	}

	state := q.Get("state")
	if state == "" {
		return "", "", fmt.Errorf("%w: state parameter not found", autherr.ErrMalformedCallback)
	}

	return code, state, nil
}
