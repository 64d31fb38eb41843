package authscheme

import (
	"github.com/vitalvas/reqauth/digestauth"
	"github.com/vitalvas/reqauth/oauth1"
	"github.com/vitalvas/reqauth/oauth2flow"
	"github.com/vitalvas/reqauth/sigv4"
)

// Kind is the type tag of a stored scheme.
type Kind string

const (
	KindNone   Kind = "none"
	KindBasic  Kind = "basic"
	KindBearer Kind = "bearer"
	KindAPIKey Kind = "api-key"
	KindDigest Kind = "digest"
	KindOAuth1 Kind = "oauth1"
	KindAWS    Kind = "aws"
	KindOAuth2 Kind = "oauth2"
)

// Kinds lists every supported tag.
var Kinds = []Kind{KindNone, KindBasic, KindBearer, KindAPIKey, KindDigest, KindOAuth1, KindAWS, KindOAuth2}

// Scheme is one of None, Basic, Bearer, APIKey, Digest, OAuth1, AWSV4 or
// OAuth2. The set is closed.
type Scheme interface {
	Kind() Kind
	isScheme()
}

// None sends no credentials.
type None struct{}

// Basic is HTTP Basic authentication (RFC 7617).
type Basic struct {
	Username string
	Password string
}

// Bearer sends a static bearer token (RFC 6750).
type Bearer struct {
	Token string
}

// Location is where an API key is sent.
type Location string

const (
	InHeader Location = "header"
	InQuery  Location = "query"
)

// APIKey sends a named key in a header or query parameter.
type APIKey struct {
	Name  string
	Value string

	// In defaults to InHeader.
	In Location
}

// Digest is HTTP Digest authentication. Method, URI and Body default to
// the request being signed. Without a Nonce, Transport fetches the
// challenge first.
type Digest struct {
	Credentials digestauth.Credentials
}

// OAuth1 signs requests with OAuth 1.0a.
type OAuth1 struct {
	Credentials oauth1.Credentials
}

// AWSV4 signs requests with AWS Signature Version 4. Profile names a
// shared config profile used when the static keys are empty.
type AWSV4 struct {
	Credentials sigv4.Credentials
	Profile     string
}

// OAuth2 carries the client configuration used to obtain tokens and the
// access token sent as a bearer credential.
type OAuth2 struct {
	Config oauth2flow.Config
	Token  oauth2flow.Token
}

func (None) Kind() Kind   { return KindNone }
func (Basic) Kind() Kind  { return KindBasic }
func (Bearer) Kind() Kind { return KindBearer }
func (APIKey) Kind() Kind { return KindAPIKey }
func (Digest) Kind() Kind { return KindDigest }
func (OAuth1) Kind() Kind { return KindOAuth1 }
func (AWSV4) Kind() Kind  { return KindAWS }
func (OAuth2) Kind() Kind { return KindOAuth2 }

func (None) isScheme()   {}
func (Basic) isScheme()  {}
func (Bearer) isScheme() {}
func (APIKey) isScheme() {}
func (Digest) isScheme() {}
func (OAuth1) isScheme() {}
func (AWSV4) isScheme()  {}
func (OAuth2) isScheme() {}
