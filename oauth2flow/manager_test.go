package oauth2flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/reqauth/autherr"
	"github.com/vitalvas/reqauth/nonce"
	"golang.org/x/oauth2"
)

var fixedTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

// newTokenServer starts a token endpoint that hands every parsed request
// to handle and writes its JSON reply.
func newTokenServer(t *testing.T, handle func(r *http.Request) (int, any)) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)

		if !assert.NoError(t, r.ParseForm()) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		status, body := handle(r)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(ts.Close)

	return ts
}

func testConfig(tokenURL string) Config {
	return Config{
		ClientID:         "client-1",
		AuthorizationURL: "https://auth.example.com/authorize",
		TokenURL:         tokenURL,
		RedirectURI:      "http://localhost:8080/callback",
		Scope:            "read write",
		UsePKCE:          true,
	}
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestAuthorizationURL(t *testing.T) {
	t.Run("pkce", func(t *testing.T) {
		m := New(testConfig(""),
			WithSource(nonce.New(bytes.NewReader(make([]byte, 64)))),
			WithClock(func() time.Time { return fixedTime }),
			WithLogger(quietLogger()),
		)

		raw, flow, err := m.AuthorizationURL()
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		q := u.Query()

		assert.Equal(t, "auth.example.com", u.Host)
		assert.Equal(t, "/authorize", u.Path)
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "client-1", q.Get("client_id"))
		assert.Equal(t, "http://localhost:8080/callback", q.Get("redirect_uri"))
		assert.Equal(t, "read write", q.Get("scope"))
		assert.Equal(t, flow.State, q.Get("state"))
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.Equal(t, oauth2.S256ChallengeFromVerifier(flow.CodeVerifier), q.Get("code_challenge"))

		assert.Len(t, flow.State, 32)
		assert.Len(t, flow.CodeVerifier, 43)
		assert.NotEqual(t, uuid.Nil, flow.ID)
		assert.Equal(t, fixedTime, flow.CreatedAt)
		assert.Equal(t, "http://localhost:8080/callback", flow.RedirectURI)
	})

	t.Run("without pkce", func(t *testing.T) {
		cfg := testConfig("")
		cfg.UsePKCE = false

		raw, flow, err := New(cfg, WithLogger(quietLogger())).AuthorizationURL()
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)

		assert.Empty(t, flow.CodeVerifier)
		assert.False(t, u.Query().Has("code_challenge"))
		assert.False(t, u.Query().Has("code_challenge_method"))
	})

	t.Run("keeps existing query", func(t *testing.T) {
		cfg := testConfig("")
		cfg.AuthorizationURL = "https://auth.example.com/authorize?audience=api"

		raw, _, err := New(cfg, WithLogger(quietLogger())).AuthorizationURL()
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "api", u.Query().Get("audience"))
		assert.Equal(t, "code", u.Query().Get("response_type"))
	})

	t.Run("fresh state per call", func(t *testing.T) {
		m := New(testConfig(""), WithLogger(quietLogger()))

		_, a, err := m.AuthorizationURL()
		require.NoError(t, err)

		_, b, err := m.AuthorizationURL()
		require.NoError(t, err)

		assert.NotEqual(t, a.State, b.State)
		assert.NotEqual(t, a.CodeVerifier, b.CodeVerifier)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("missing client id", func(t *testing.T) {
		cfg := testConfig("")
		cfg.ClientID = ""

		_, _, err := New(cfg).AuthorizationURL()
		assert.ErrorIs(t, err, ErrMissingClientID)
		assert.ErrorIs(t, err, autherr.ErrConfiguration)
	})

	t.Run("missing authorization url", func(t *testing.T) {
		cfg := testConfig("")
		cfg.AuthorizationURL = ""

		_, _, err := New(cfg).AuthorizationURL()
		assert.ErrorIs(t, err, ErrMissingEndpoint)
	})
}

func TestExchange(t *testing.T) {
	t.Run("pkce public client", func(t *testing.T) {
		var flow FlowState

		server := newTokenServer(t, func(r *http.Request) (int, any) {
			_, _, hasBasic := r.BasicAuth()
			assert.False(t, hasBasic)

			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "auth_code_123", r.PostForm.Get("code"))
			assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
			assert.Equal(t, flow.CodeVerifier, r.PostForm.Get("code_verifier"))
			assert.Equal(t, "http://localhost:8080/callback", r.PostForm.Get("redirect_uri"))

			return http.StatusOK, map[string]any{
				"access_token":  "at-1",
				"token_type":    "bearer",
				"expires_in":    3600,
				"refresh_token": "rt-1",
				"scope":         "read",
			}
		})

		m := New(testConfig(server.URL), WithLogger(quietLogger()))

		var err error
		_, flow, err = m.AuthorizationURL()
		require.NoError(t, err)

		// A second Manager completes the flow from the stored state.
		tok, err := New(testConfig(server.URL), WithLogger(quietLogger())).Exchange(context.Background(), flow, "auth_code_123", flow.State)
		require.NoError(t, err)

		require.NotNil(t, tok.ExpiresIn)
		assert.Equal(t, Token{
			AccessToken:  "at-1",
			TokenType:    "Bearer",
			ExpiresIn:    tok.ExpiresIn,
			RefreshToken: "rt-1",
			Scope:        "read",
		}, tok)
		assert.Equal(t, int64(3600), *tok.ExpiresIn)
		assert.Equal(t, int32(1), server.calls.Load())
	})

	t.Run("confidential client uses basic auth", func(t *testing.T) {
		server := newTokenServer(t, func(r *http.Request) (int, any) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-1", user)
			assert.Equal(t, "s3cret", pass)
			assert.Empty(t, r.PostForm.Get("code_verifier"))

			return http.StatusOK, map[string]any{"access_token": "at", "token_type": "Bearer"}
		})

		cfg := testConfig(server.URL)
		cfg.ClientSecret = "s3cret"
		cfg.UsePKCE = false

		m := New(cfg, WithLogger(quietLogger()))

		_, flow, err := m.AuthorizationURL()
		require.NoError(t, err)

		tok, err := m.Exchange(context.Background(), flow, "code", flow.State)
		require.NoError(t, err)
		assert.Equal(t, "at", tok.AccessToken)
		assert.Nil(t, tok.ExpiresIn)
	})

	t.Run("state mismatch makes no request", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusOK, map[string]any{"access_token": "at"}
		})

		logger, hook := test.NewNullLogger()
		m := New(testConfig(server.URL), WithLogger(logger))

		_, flow, err := m.AuthorizationURL()
		require.NoError(t, err)

		_, err = m.Exchange(context.Background(), flow, "code", "forged")
		assert.ErrorIs(t, err, ErrStateMismatch)
		assert.ErrorIs(t, err, autherr.ErrProtocolMismatch)
		assert.Equal(t, int32(0), server.calls.Load())

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, flow.ID.String(), hook.LastEntry().Data["flow_id"])
	})

	t.Run("empty stored state is never accepted", func(t *testing.T) {
		_, err := New(testConfig("http://127.0.0.1:1"), WithLogger(quietLogger())).Exchange(context.Background(), FlowState{}, "code", "")
		assert.ErrorIs(t, err, ErrStateMismatch)
	})

	t.Run("missing code", func(t *testing.T) {
		flow := FlowState{State: "abc"}

		_, err := New(testConfig("http://127.0.0.1:1"), WithLogger(quietLogger())).Exchange(context.Background(), flow, "", "abc")
		assert.ErrorIs(t, err, autherr.ErrMalformedCallback)
	})

	t.Run("provider rejection", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusBadRequest, map[string]any{
				"error":             "invalid_grant",
				"error_description": "code expired",
			}
		})

		m := New(testConfig(server.URL), WithLogger(quietLogger()))
		flow := FlowState{State: "abc"}

		_, err := m.Exchange(context.Background(), flow, "code", "abc")
		require.Error(t, err)
		assert.ErrorIs(t, err, autherr.ErrUpstream)

		var ue *autherr.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, GrantAuthorizationCode, ue.Op)
		assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
		assert.Equal(t, "invalid_grant", ue.ErrorCode)
		assert.Equal(t, "code expired", ue.Description)
		assert.Contains(t, string(ue.Body), "invalid_grant")

		var re *oauth2.RetrieveError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		m := New(testConfig(server.URL), WithLogger(quietLogger()))

		_, err := m.Exchange(context.Background(), FlowState{State: "abc"}, "code", "abc")
		assert.ErrorIs(t, err, autherr.ErrUpstream)

		var ue *autherr.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Zero(t, ue.StatusCode)
	})

	t.Run("custom http client", func(t *testing.T) {
		server := newTokenServer(t, func(r *http.Request) (int, any) {
			assert.Equal(t, "reqauth-test", r.Header.Get("X-Client"))
			return http.StatusOK, map[string]any{"access_token": "at"}
		})

		client := &http.Client{Transport: headerTransport{base: http.DefaultTransport, key: "X-Client", value: "reqauth-test"}}
		m := New(testConfig(server.URL), WithHTTPClient(client), WithLogger(quietLogger()))

		_, err := m.Exchange(context.Background(), FlowState{State: "abc"}, "code", "abc")
		require.NoError(t, err)
	})
}

type headerTransport struct {
	base       http.RoundTripper
	key, value string
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(h.key, h.value)

	return h.base.RoundTrip(r)
}

func TestClientCredentials(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := newTokenServer(t, func(r *http.Request) (int, any) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-1", user)
			assert.Equal(t, "s3cret", pass)
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "read write", r.PostForm.Get("scope"))

			return http.StatusOK, map[string]any{
				"access_token": "machine",
				"token_type":   "Bearer",
				"expires_in":   "120",
			}
		})

		cfg := testConfig(server.URL)
		cfg.ClientSecret = "s3cret"

		tok, err := New(cfg, WithLogger(quietLogger())).ClientCredentials(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "machine", tok.AccessToken)
		assert.Equal(t, "Bearer", tok.TokenType)
		require.NotNil(t, tok.ExpiresIn)
		assert.Equal(t, int64(120), *tok.ExpiresIn)
	})

	t.Run("missing secret fails before any request", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusOK, map[string]any{"access_token": "at"}
		})

		_, err := New(testConfig(server.URL)).ClientCredentials(context.Background())
		assert.ErrorIs(t, err, ErrMissingClientSecret)
		assert.ErrorIs(t, err, autherr.ErrConfiguration)
		assert.Equal(t, int32(0), server.calls.Load())
	})

	t.Run("upstream failure", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusUnauthorized, map[string]any{"error": "invalid_client"}
		})

		cfg := testConfig(server.URL)
		cfg.ClientSecret = "wrong"

		_, err := New(cfg, WithLogger(quietLogger())).ClientCredentials(context.Background())

		var ue *autherr.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, GrantClientCredentials, ue.Op)
		assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
		assert.Equal(t, "invalid_client", ue.ErrorCode)
	})
}

func TestRefresh(t *testing.T) {
	confidential := func(tokenURL string) Config {
		cfg := testConfig(tokenURL)
		cfg.ClientSecret = "s3cret"
		return cfg
	}

	t.Run("keeps refresh token when response omits it", func(t *testing.T) {
		server := newTokenServer(t, func(r *http.Request) (int, any) {
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rt-old", r.PostForm.Get("refresh_token"))

			return http.StatusOK, map[string]any{"access_token": "at-2", "token_type": "Bearer", "expires_in": 60}
		})

		tok, err := New(confidential(server.URL), WithLogger(quietLogger())).Refresh(context.Background(), "rt-old")
		require.NoError(t, err)

		assert.Equal(t, "at-2", tok.AccessToken)
		assert.Equal(t, "rt-old", tok.RefreshToken)
	})

	t.Run("rotated refresh token", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusOK, map[string]any{"access_token": "at-2", "refresh_token": "rt-new"}
		})

		tok, err := New(confidential(server.URL), WithLogger(quietLogger())).Refresh(context.Background(), "rt-old")
		require.NoError(t, err)
		assert.Equal(t, "rt-new", tok.RefreshToken)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := New(testConfig("http://127.0.0.1:1")).Refresh(context.Background(), "rt")
		assert.ErrorIs(t, err, ErrMissingClientSecret)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		_, err := New(confidential("http://127.0.0.1:1")).Refresh(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingRefreshToken)
	})

	t.Run("rejected", func(t *testing.T) {
		server := newTokenServer(t, func(*http.Request) (int, any) {
			return http.StatusBadRequest, map[string]any{"error": "invalid_grant"}
		})

		_, err := New(confidential(server.URL), WithLogger(quietLogger())).Refresh(context.Background(), "rt")
		assert.ErrorIs(t, err, autherr.ErrUpstream)
	})
}

func TestNewToken(t *testing.T) {
	m := New(Config{}, WithClock(func() time.Time { return fixedTime }))

	t.Run("expiry derived when wire value absent", func(t *testing.T) {
		tok := m.newToken(&oauth2.Token{AccessToken: "at", Expiry: fixedTime.Add(90 * time.Second)})

		require.NotNil(t, tok.ExpiresIn)
		assert.Equal(t, int64(90), *tok.ExpiresIn)
		assert.Equal(t, "Bearer", tok.TokenType)
	})

	t.Run("no expiry", func(t *testing.T) {
		tok := m.newToken(&oauth2.Token{AccessToken: "at"})
		assert.Nil(t, tok.ExpiresIn)
		assert.Empty(t, tok.Scope)
	})

	t.Run("absolute expiry", func(t *testing.T) {
		secs := int64(30)
		tok := Token{ExpiresIn: &secs}

		assert.Equal(t, fixedTime.Add(30*time.Second), tok.Expiry(fixedTime))
		assert.True(t, Token{}.Expiry(fixedTime).IsZero())
	})
}

func TestExpiresIn(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{name: "json number", in: float64(3600), want: 3600, ok: true},
		{name: "form integer", in: int64(60), want: 60, ok: true},
		{name: "json.Number", in: json.Number("15"), want: 15, ok: true},
		{name: "string", in: "120", want: 120, ok: true},
		{name: "garbage", in: "soon", ok: false},
		{name: "absent", in: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := expiresIn(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlowStateJSON(t *testing.T) {
	m := New(testConfig(""), WithLogger(quietLogger()))

	_, flow, err := m.AuthorizationURL()
	require.NoError(t, err)

	data, err := json.Marshal(flow)
	require.NoError(t, err)

	var restored FlowState
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, flow.ID, restored.ID)
	assert.Equal(t, flow.State, restored.State)
	assert.Equal(t, flow.CodeVerifier, restored.CodeVerifier)
	assert.True(t, flow.CreatedAt.Equal(restored.CreatedAt))
}
