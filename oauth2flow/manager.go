package oauth2flow

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vitalvas/reqauth/autherr"
	"github.com/vitalvas/reqauth/nonce"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	stateLength    = 32
	verifierLength = 32 // bytes; 43 base64url characters
)

// Grant names used in logs and UpstreamError.Op.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// Manager runs OAuth 2.0 grants for one client configuration. It keeps no
// per-flow state and is safe for concurrent use.
type Manager struct {
	cfg    Config
	client *http.Client
	log    logrus.FieldLogger
	source *nonce.Source
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for token endpoint requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithLogger sets the logger. Tokens and secrets are never logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSource sets the random source for state tokens and PKCE verifiers.
func WithSource(src *nonce.Source) Option {
	return func(m *Manager) {
		m.source = src
	}
}

// WithClock sets the clock used for FlowState.CreatedAt and expiry
// derivation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager for cfg.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		log:    logrus.StandardLogger(),
		source: nonce.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Config returns the client configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// AuthorizationURL builds the provider authorization URL with a fresh
// state token and, when PKCE is enabled, a fresh verifier and its S256
// challenge. The returned FlowState must be passed to Exchange.
func (m *Manager) AuthorizationURL() (string, FlowState, error) {
	if m.cfg.ClientID == "" {
		return "", FlowState{}, ErrMissingClientID
	}

	if m.cfg.AuthorizationURL == "" {
		return "", FlowState{}, fmt.Errorf("%w: authorization url", ErrMissingEndpoint)
	}

	state, err := m.source.Alphanumeric(stateLength)
	if err != nil {
		return "", FlowState{}, err
	}

	flow := FlowState{
		ID:          uuid.New(),
		State:       state,
		RedirectURI: m.cfg.RedirectURI,
		CreatedAt:   m.now().UTC(),
	}

	var opts []oauth2.AuthCodeOption
	if m.cfg.UsePKCE {
		flow.CodeVerifier, err = m.source.URLSafe(verifierLength)
		if err != nil {
			return "", FlowState{}, err
		}

		opts = append(opts, oauth2.S256ChallengeOption(flow.CodeVerifier))
	}

	m.log.WithFields(logrus.Fields{
		"client_id":  m.cfg.ClientID,
		"grant_type": GrantAuthorizationCode,
		"flow_id":    flow.ID.String(),
		"pkce":       m.cfg.UsePKCE,
	}).Debug("authorization flow started")

	return m.oauthConfig(flow.RedirectURI).AuthCodeURL(state, opts...), flow, nil
}

// Exchange completes an authorization-code flow. The returned state is
// compared with flow.State first; on mismatch ErrStateMismatch is
// returned and no request is made.
func (m *Manager) Exchange(ctx context.Context, flow FlowState, code, returnedState string) (Token, error) {
	logger := m.log.WithFields(logrus.Fields{
		"client_id":  m.cfg.ClientID,
		"grant_type": GrantAuthorizationCode,
		"flow_id":    flow.ID.String(),
	})

	if flow.State == "" || subtle.ConstantTimeCompare([]byte(flow.State), []byte(returnedState)) != 1 {
		logger.Warn("authorization callback state mismatch")
		return Token{}, ErrStateMismatch
	}

	if code == "" {
		return Token{}, fmt.Errorf("%w: missing code", autherr.ErrMalformedCallback)
	}

	if m.cfg.TokenURL == "" {
		return Token{}, fmt.Errorf("%w: token url", ErrMissingEndpoint)
	}

	var opts []oauth2.AuthCodeOption
	if flow.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(flow.CodeVerifier))
	}

	redirectURI := flow.RedirectURI
	if redirectURI == "" {
		redirectURI = m.cfg.RedirectURI
	}

	logger.Debug("exchanging authorization code")

	tok, err := m.oauthConfig(redirectURI).Exchange(m.context(ctx), code, opts...)
	if err != nil {
		return Token{}, upstreamError(GrantAuthorizationCode, err)
	}

	return m.newToken(tok), nil
}

// ClientCredentials requests a token with the client-credentials grant.
// A client secret is required and checked before any request is made.
func (m *Manager) ClientCredentials(ctx context.Context) (Token, error) {
	if m.cfg.ClientSecret == "" {
		return Token{}, ErrMissingClientSecret
	}

	if m.cfg.TokenURL == "" {
		return Token{}, fmt.Errorf("%w: token url", ErrMissingEndpoint)
	}

	cc := &clientcredentials.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		TokenURL:     m.cfg.TokenURL,
		Scopes:       m.cfg.scopes(),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	m.log.WithFields(logrus.Fields{
		"client_id":  m.cfg.ClientID,
		"grant_type": GrantClientCredentials,
	}).Debug("requesting client credentials token")

	tok, err := cc.Token(m.context(ctx))
	if err != nil {
		return Token{}, upstreamError(GrantClientCredentials, err)
	}

	return m.newToken(tok), nil
}

// Refresh exchanges refreshToken for a new access token. When the
// response carries no refresh token, refreshToken is returned in its
// place.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	if m.cfg.ClientSecret == "" {
		return Token{}, ErrMissingClientSecret
	}

	if refreshToken == "" {
		return Token{}, ErrMissingRefreshToken
	}

	if m.cfg.TokenURL == "" {
		return Token{}, fmt.Errorf("%w: token url", ErrMissingEndpoint)
	}

	m.log.WithFields(logrus.Fields{
		"client_id":  m.cfg.ClientID,
		"grant_type": GrantRefreshToken,
	}).Debug("refreshing token")

	ts := m.oauthConfig(m.cfg.RedirectURI).TokenSource(m.context(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := ts.Token()
	if err != nil {
		return Token{}, upstreamError(GrantRefreshToken, err)
	}

	out := m.newToken(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}

	return out, nil
}

// oauthConfig sends client credentials with HTTP Basic when a secret is
// configured, and client_id in the form body for public clients.
func (m *Manager) oauthConfig(redirectURI string) *oauth2.Config {
	style := oauth2.AuthStyleInHeader
	if m.cfg.ClientSecret == "" {
		style = oauth2.AuthStyleInParams
	}

	return &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       m.cfg.scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.cfg.AuthorizationURL,
			TokenURL:  m.cfg.TokenURL,
			AuthStyle: style,
		},
	}
}

func (m *Manager) context(ctx context.Context) context.Context {
	if m.client == nil {
		return ctx
	}

	return context.WithValue(ctx, oauth2.HTTPClient, m.client)
}

func upstreamError(op string, err error) error {
	ue := &autherr.UpstreamError{Op: op, Err: err}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			ue.StatusCode = re.Response.StatusCode
		}

		ue.ErrorCode = re.ErrorCode
		ue.Description = re.ErrorDescription
		ue.Body = re.Body
	}

	return ue
}
