package oauth2flow

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenTypeBearer is the token_type reported for every issued token.
const TokenTypeBearer = "Bearer"

// Config is the static registration of one client with one provider.
type Config struct {
	ClientID string `yaml:"client_id" json:"client_id"`

	// ClientSecret is optional for public clients using PKCE. It is
	// required by the client-credentials and refresh grants.
	ClientSecret string `yaml:"client_secret" json:"client_secret,omitempty"`

	AuthorizationURL string `yaml:"authorization_url" json:"authorization_url"`
	TokenURL         string `yaml:"token_url" json:"token_url"`
	RedirectURI      string `yaml:"redirect_uri" json:"redirect_uri"`

	// Scope is a space separated list of scopes.
	Scope string `yaml:"scope" json:"scope,omitempty"`

	UsePKCE bool `yaml:"use_pkce" json:"use_pkce"`
}

func (c Config) scopes() []string {
	return strings.Fields(c.Scope)
}

// FlowState correlates the two phases of one authorization-code flow. It
// is created by Manager.AuthorizationURL and consumed once by
// Manager.Exchange.
type FlowState struct {
	ID           uuid.UUID `json:"id"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	RedirectURI  string    `json:"redirect_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is the result of a successful grant. The caller owns its storage.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}
