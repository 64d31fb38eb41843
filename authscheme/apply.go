package authscheme

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/vitalvas/reqauth/digestauth"
	"github.com/vitalvas/reqauth/oauth1"
	"github.com/vitalvas/reqauth/sigv4"
	"golang.org/x/net/http/httpguts"
)

// Request describes the request being authenticated.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Result lists what to attach to the request.
type Result struct {
	// Header holds headers to set, replacing existing values. A Host
	// entry sets the request host.
	Header http.Header

	// Query holds query parameters to add to the URL.
	Query url.Values
}

func newResult() Result {
	return Result{Header: make(http.Header), Query: make(url.Values)}
}

// ApplyTo sets the result headers and query parameters on r.
func (res Result) ApplyTo(r *http.Request) {
	for k, vs := range res.Header {
		if http.CanonicalHeaderKey(k) == "Host" {
			if len(vs) > 0 {
				r.Host = vs[0]
			}

			continue
		}

		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}

	if len(res.Query) == 0 {
		return
	}

	r.URL.RawQuery = res.MergeQuery(r.URL.RawQuery)
}

// MergeQuery appends the result query parameters to rawQuery. Existing
// pairs keep their order and encoding; pairs named in Query are replaced.
func (res Result) MergeQuery(rawQuery string) string {
	if len(res.Query) == 0 {
		return rawQuery
	}

	parts := make([]string, 0, strings.Count(rawQuery, "&")+len(res.Query)+1)

	for part := range strings.SplitSeq(rawQuery, "&") {
		if part == "" {
			continue
		}

		name, _, _ := strings.Cut(part, "=")
		if key, err := url.QueryUnescape(name); err == nil {
			if _, replaced := res.Query[key]; replaced {
				continue
			}
		}

		parts = append(parts, part)
	}

	parts = append(parts, res.Query.Encode())

	return strings.Join(parts, "&")
}

// Applier applies schemes using its signers.
type Applier struct {
	digest *digestauth.Signer
	oauth1 *oauth1.Signer
	sigv4  *sigv4.Signer
}

// Option configures an Applier.
type Option func(*Applier)

// WithDigestSigner sets the Digest signer.
func WithDigestSigner(s *digestauth.Signer) Option {
	return func(a *Applier) {
		a.digest = s
	}
}

// WithOAuth1Signer sets the OAuth 1.0a signer.
func WithOAuth1Signer(s *oauth1.Signer) Option {
	return func(a *Applier) {
		a.oauth1 = s
	}
}

// WithSigV4Signer sets the SigV4 signer.
func WithSigV4Signer(s *sigv4.Signer) Option {
	return func(a *Applier) {
		a.sigv4 = s
	}
}

// NewApplier creates an Applier with default signers unless overridden.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{
		digest: digestauth.NewSigner(nil),
		oauth1: oauth1.NewSigner(),
		sigv4:  sigv4.NewSigner(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

var defaultApplier = NewApplier()

// Apply authenticates req under s with the default Applier.
func Apply(s Scheme, req Request) (Result, error) {
	return defaultApplier.Apply(s, req)
}

// Apply returns the headers and query parameters that authenticate req
// under s. req is not modified.
func (a *Applier) Apply(s Scheme, req Request) (Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	res := newResult()

	switch v := s.(type) {
	case nil, None:
		return res, nil

	case Basic:
		if strings.Contains(v.Username, ":") {
			return Result{}, fmt.Errorf("%w: basic username must not contain a colon", ErrInvalidHeader)
		}

		creds := base64.StdEncoding.EncodeToString([]byte(v.Username + ":" + v.Password))
		res.Header.Set("Authorization", "Basic "+creds)

	case Bearer:
		if v.Token == "" {
			return Result{}, fmt.Errorf("%w: bearer token", ErrMissingField)
		}

		return setAuthorization(res, "Bearer "+v.Token)

	case APIKey:
		if v.Name == "" {
			return Result{}, fmt.Errorf("%w: api key name", ErrMissingField)
		}

		switch v.In {
		case InHeader, "":
			if !httpguts.ValidHeaderFieldName(v.Name) || !httpguts.ValidHeaderFieldValue(v.Value) {
				return Result{}, fmt.Errorf("%w: api key %q", ErrInvalidHeader, v.Name)
			}

			res.Header.Set(v.Name, v.Value)
		case InQuery:
			res.Query.Set(v.Name, v.Value)
		default:
			return Result{}, fmt.Errorf("%w: %q", ErrInvalidLocation, v.In)
		}

	case Digest:
		c := v.Credentials
		if c.Method == "" {
			c.Method = req.Method
		}

		if c.URI == "" {
			c.URI = u.RequestURI()
		}

		if c.Body == nil {
			c.Body = req.Body
		}

		header, err := a.digest.Authorization(c)
		if err != nil {
			return Result{}, err
		}

		res.Header.Set("Authorization", header)

	case OAuth1:
		params, err := formParams(req)
		if err != nil {
			return Result{}, err
		}

		header, err := a.oauth1.Authorization(v.Credentials, req.Method, req.URL, params)
		if err != nil {
			return Result{}, err
		}

		res.Header.Set("Authorization", header)

	case AWSV4:
		signed, err := a.sigv4.Sign(v.Credentials, req.Method, req.URL, req.Header, req.Body)
		if err != nil {
			return Result{}, err
		}

		for k, vs := range signed {
			if !slices.Equal(req.Header.Values(k), vs) {
				res.Header[k] = vs
			}
		}

	case OAuth2:
		if v.Token.AccessToken == "" {
			return Result{}, fmt.Errorf("%w: oauth2 access token", ErrMissingField)
		}

		return setAuthorization(res, "Bearer "+v.Token.AccessToken)

	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownScheme, s)
	}

	return res, nil
}

func setAuthorization(res Result, value string) (Result, error) {
	if !httpguts.ValidHeaderFieldValue(value) {
		return Result{}, fmt.Errorf("%w: authorization", ErrInvalidHeader)
	}

	res.Header.Set("Authorization", value)

	return res, nil
}

// formParams returns form-encoded body parameters, which OAuth 1.0a
// signs. Other bodies contribute none.
func formParams(req Request) (url.Values, error) {
	if len(req.Body) == 0 {
		return nil, nil
	}

	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil, nil
	}

	params, err := url.ParseQuery(string(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: form body: %v", ErrInvalidRequest, err)
	}

	return params, nil
}
