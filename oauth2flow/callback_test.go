package oauth2flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/reqauth/autherr"
)

func TestParseCallback(t *testing.T) {
	t.Run("code and state", func(t *testing.T) {
		code, state, err := ParseCallback("http://localhost:8080/callback?code=auth_code_123&state=csrf_token_456")
		require.NoError(t, err)

		assert.Equal(t, "auth_code_123", code)
		assert.Equal(t, "csrf_token_456", state)
	})

	t.Run("encoded values", func(t *testing.T) {
		code, _, err := ParseCallback("http://localhost/cb?code=a%2Fb%3D&state=s")
		require.NoError(t, err)
		assert.Equal(t, "a/b=", code)
	})

	tests := []struct {
		name    string
		url     string
		message string
	}{
		{name: "missing state", url: "http://localhost:8080/callback?code=auth_code_123", message: "state"},
		{name: "missing code", url: "http://localhost:8080/callback?state=csrf", message: "code"},
		{name: "empty code", url: "http://localhost:8080/callback?code=&state=csrf", message: "code"},
		{name: "provider error", url: "http://localhost/cb?error=access_denied&error_description=user+declined&state=s", message: "access_denied (user declined)"},
		{name: "provider error without description", url: "http://localhost/cb?error=server_error", message: "server_error"},
		{name: "unparseable", url: "http://[::1", message: "malformed callback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseCallback(tt.url)
			assert.ErrorIs(t, err, autherr.ErrMalformedCallback)
			assert.ErrorContains(t, err, tt.message)
		})
	}
}
