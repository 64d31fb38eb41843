package autherr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	t.Run("all categories are distinct", func(t *testing.T) {
		categories := []error{
			ErrConfiguration,
			ErrEncoding,
			ErrProtocolMismatch,
			ErrUpstream,
			ErrMalformedCallback,
		}

		for i, a := range categories {
			for j, b := range categories {
				if i != j {
					assert.NotErrorIs(t, a, b)
				}
			}
		}
	})

	t.Run("wrapped sentinel matches category", func(t *testing.T) {
		errSpecific := fmt.Errorf("%w: missing secret", ErrConfiguration)
		wrapped := fmt.Errorf("client credentials: %w", errSpecific)

		assert.ErrorIs(t, wrapped, ErrConfiguration)
		assert.ErrorIs(t, wrapped, errSpecific)
	})
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *UpstreamError
		want string
	}{
		{
			name: "transport failure",
			err:  &UpstreamError{Op: "refresh_token", Err: cause},
			want: "reqauth: refresh_token request failed: connection refused",
		},
		{
			name: "rfc 6749 error response",
			err: &UpstreamError{
				Op:          "authorization_code",
				StatusCode:  400,
				ErrorCode:   "invalid_grant",
				Description: "code expired",
				Err:         cause,
			},
			want: "reqauth: authorization_code request failed with status 400: invalid_grant (code expired)",
		},
		{
			name: "status without error code",
			err:  &UpstreamError{Op: "client_credentials", StatusCode: 502},
			want: "reqauth: client_credentials request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrUpstream)
		})
	}

	t.Run("unwraps to cause", func(t *testing.T) {
		err := fmt.Errorf("exchange: %w", &UpstreamError{Op: "authorization_code", Err: cause})

		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrUpstream)

		var upstream *UpstreamError
		assert.True(t, errors.As(err, &upstream))
		assert.Equal(t, "authorization_code", upstream.Op)
	})
}
