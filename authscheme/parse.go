package authscheme

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/vitalvas/reqauth/digestauth"
	"github.com/vitalvas/reqauth/oauth1"
	"github.com/vitalvas/reqauth/oauth2flow"
	"github.com/vitalvas/reqauth/sigv4"
)

// ParseKind normalises a stored type tag. An empty tag means KindNone.
func ParseKind(tag string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "none", "noauth":
		return KindNone, nil
	case "basic":
		return KindBasic, nil
	case "bearer":
		return KindBearer, nil
	case "api-key", "apikey", "api_key":
		return KindAPIKey, nil
	case "digest":
		return KindDigest, nil
	case "oauth1", "oauth1.0a":
		return KindOAuth1, nil
	case "aws", "awsv4", "aws-v4", "sigv4":
		return KindAWS, nil
	case "oauth2":
		return KindOAuth2, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, tag)
	}
}

// Parse resolves a type tag and its JSON payload into a Scheme. Payload
// keys are snake_case, e.g. {"username":"u","password":"p"} for basic.
func Parse(authType, authData string) (Scheme, error) {
	kind, err := ParseKind(authType)
	if err != nil {
		return nil, err
	}

	if kind == KindNone {
		return None{}, nil
	}

	data := strings.TrimSpace(authData)
	if data == "" {
		data = "{}"
	}

	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: %s payload is not valid json", ErrInvalidAuthData, kind)
	}

	r := gjson.Parse(data)
	if !r.IsObject() {
		return nil, fmt.Errorf("%w: %s payload must be an object", ErrInvalidAuthData, kind)
	}

	switch kind {
	case KindBasic:
		return parseBasic(r)
	case KindBearer:
		return parseBearer(r)
	case KindAPIKey:
		return parseAPIKey(r)
	case KindDigest:
		return parseDigest(r)
	case KindOAuth1:
		return parseOAuth1(r)
	case KindAWS:
		return parseAWS(r)
	default:
		return parseOAuth2(r)
	}
}

func required(kind Kind, r gjson.Result, key string) (string, error) {
	v := r.Get(key).String()
	if v == "" {
		return "", fmt.Errorf("%w: %s %s", ErrMissingField, kind, key)
	}

	return v, nil
}

func parseBasic(r gjson.Result) (Scheme, error) {
	username, err := required(KindBasic, r, "username")
	if err != nil {
		return nil, err
	}

	return Basic{Username: username, Password: r.Get("password").String()}, nil
}

func parseBearer(r gjson.Result) (Scheme, error) {
	token, err := required(KindBearer, r, "token")
	if err != nil {
		return nil, err
	}

	return Bearer{Token: token}, nil
}

func parseAPIKey(r gjson.Result) (Scheme, error) {
	name, err := required(KindAPIKey, r, "key")
	if err != nil {
		return nil, err
	}

	in := Location(strings.ToLower(r.Get("in").String()))
	switch in {
	case "":
		in = InHeader
	case InHeader, InQuery:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, in)
	}

	return APIKey{Name: name, Value: r.Get("value").String(), In: in}, nil
}

func parseDigest(r gjson.Result) (Scheme, error) {
	username, err := required(KindDigest, r, "username")
	if err != nil {
		return nil, err
	}

	nc := r.Get("nc")
	ncValue := nc.String()
	if nc.Type == gjson.Number {
		ncValue = digestauth.NonceCount(uint32(nc.Uint()))
	}

	return Digest{Credentials: digestauth.Credentials{
		Username:  username,
		Password:  r.Get("password").String(),
		Realm:     r.Get("realm").String(),
		Nonce:     r.Get("nonce").String(),
		URI:       r.Get("uri").String(),
		Method:    r.Get("method").String(),
		QOP:       r.Get("qop").String(),
		NC:        ncValue,
		CNonce:    r.Get("cnonce").String(),
		Opaque:    r.Get("opaque").String(),
		Algorithm: digestauth.Algorithm(r.Get("algorithm").String()),
	}}, nil
}

func parseOAuth1(r gjson.Result) (Scheme, error) {
	key, err := required(KindOAuth1, r, "consumer_key")
	if err != nil {
		return nil, err
	}

	return OAuth1{Credentials: oauth1.Credentials{
		ConsumerKey:     key,
		ConsumerSecret:  r.Get("consumer_secret").String(),
		Token:           r.Get("token").String(),
		TokenSecret:     r.Get("token_secret").String(),
		SignatureMethod: oauth1.SignatureMethod(r.Get("signature_method").String()),
		Version:         r.Get("version").String(),
	}}, nil
}

func parseAWS(r gjson.Result) (Scheme, error) {
	service, err := required(KindAWS, r, "service")
	if err != nil {
		return nil, err
	}

	s := AWSV4{
		Credentials: sigv4.Credentials{
			AccessKey:    r.Get("access_key").String(),
			SecretKey:    r.Get("secret_key").String(),
			SessionToken: r.Get("session_token").String(),
			Region:       r.Get("region").String(),
			Service:      service,
		},
		Profile: r.Get("profile").String(),
	}

	if (s.Credentials.AccessKey == "") != (s.Credentials.SecretKey == "") {
		return nil, fmt.Errorf("%w: aws access_key and secret_key must be set together", ErrMissingField)
	}

	return s, nil
}

func parseOAuth2(r gjson.Result) (Scheme, error) {
	clientID, err := required(KindOAuth2, r, "client_id")
	if err != nil {
		return nil, err
	}

	s := OAuth2{
		Config: oauth2flow.Config{
			ClientID:         clientID,
			ClientSecret:     r.Get("client_secret").String(),
			AuthorizationURL: r.Get("authorization_url").String(),
			TokenURL:         r.Get("token_url").String(),
			RedirectURI:      r.Get("redirect_uri").String(),
			Scope:            r.Get("scope").String(),
			UsePKCE:          r.Get("use_pkce").Bool(),
		},
		Token: oauth2flow.Token{
			AccessToken:  r.Get("access_token").String(),
			TokenType:    oauth2flow.TokenTypeBearer,
			RefreshToken: r.Get("refresh_token").String(),
		},
	}

	if exp := r.Get("expires_in"); exp.Exists() {
		secs := exp.Int()
		s.Token.ExpiresIn = &secs
	}

	return s, nil
}
