package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const (
	// Algorithm is the signing algorithm identifier.
	Algorithm = "AWS4-HMAC-SHA256"

	// TimeFormat is the X-Amz-Date timestamp layout.
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the credential scope date layout.
	ShortTimeFormat = "20060102"

	// EmptyPayloadHash is the hex SHA-256 of an empty body.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	scopeTerminator = "aws4_request"
)

// Header names added by Sign.
const (
	HeaderDate          = "X-Amz-Date"
	HeaderSecurityToken = "X-Amz-Security-Token"
	HeaderAuthorization = "Authorization"
	HeaderHost          = "Host"
)

// Credentials holds the key pair and scope for one request.
type Credentials struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string

	// SessionToken is sent as X-Amz-Security-Token when set.
	SessionToken string
}

func (c Credentials) validate() error {
	switch {
	case c.AccessKey == "":
		return fmt.Errorf("%w: access key", ErrMissingCredential)
	case c.SecretKey == "":
		return fmt.Errorf("%w: secret key", ErrMissingCredential)
	case c.Region == "":
		return fmt.Errorf("%w: region", ErrMissingCredential)
	case c.Service == "":
		return fmt.Errorf("%w: service", ErrMissingCredential)
	}

	return nil
}

// Scope returns the credential scope for the given signing date.
func (c Credentials) Scope(t time.Time) string {
	return strings.Join([]string{t.UTC().Format(ShortTimeFormat), c.Region, c.Service, scopeTerminator}, "/")
}

// Signer produces SigV4 signed header sets.
type Signer struct {
	now func() time.Time

	// disableDoubleEscape encodes the path once, as S3 expects.
	disableDoubleEscape bool
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock sets the clock used for X-Amz-Date.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithSinglePathEscape encodes the canonical URI path once instead of
// twice. S3 requires this; every other service uses double encoding.
func WithSinglePathEscape() Option {
	return func(s *Signer) {
		s.disableDoubleEscape = true
	}
}

// NewSigner creates a Signer. Without options it uses time.Now.
func NewSigner(opts ...Option) *Signer {
	s := &Signer{now: time.Now}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var defaultSigner = NewSigner()

// Sign signs a request with the default Signer.
func Sign(c Credentials, method, rawURL string, headers http.Header, body []byte) (http.Header, error) {
	return defaultSigner.Sign(c, method, rawURL, headers, body)
}

// Sign returns a copy of headers with Host, X-Amz-Date,
// X-Amz-Security-Token (when a session token is set) and Authorization
// added. Keys of the copy are canonical, so "host" and "Host" are one
// header. Every returned header except Authorization is part of the
// signature. headers is not modified.
func (s *Signer) Sign(c Credentials, method, rawURL string, headers http.Header, body []byte) (http.Header, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	if method == "" {
		return nil, ErrMissingMethod
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}

	now := s.clock()()
	if now.IsZero() {
		return nil, ErrInvalidSigningTime
	}

	now = now.UTC()
	amzDate := now.Format(TimeFormat)

	out := cloneCanonical(headers)
	out.Del(HeaderAuthorization)

	if out.Get(HeaderHost) == "" {
		out.Set(HeaderHost, hostHeader(u))
	}

	out.Set(HeaderDate, amzDate)

	if c.SessionToken != "" {
		out.Set(HeaderSecurityToken, c.SessionToken)
	}

	canonical, signedHeaders, err := s.canonicalRequest(method, u, out, PayloadHash(body))
	if err != nil {
		return nil, err
	}

	scope := c.Scope(now)
	key := DeriveSigningKey(c.SecretKey, now.Format(ShortTimeFormat), c.Region, c.Service)
	signature := hex.EncodeToString(hmacSHA256(key, StringToSign(amzDate, scope, canonical)))

	out.Set(HeaderAuthorization, fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, c.AccessKey, scope, signedHeaders, signature))

	return out, nil
}

// CanonicalRequest builds the canonical request for u and headers and
// returns it with the semicolon-separated signed header list. Path
// segments are encoded twice, as every service except S3 expects.
func CanonicalRequest(method string, u *url.URL, headers http.Header, payloadHash string) (string, string, error) {
	return defaultSigner.canonicalRequest(method, u, headers, payloadHash)
}

func (s *Signer) canonicalRequest(method string, u *url.URL, headers http.Header, payloadHash string) (string, string, error) {
	canonicalHeaders, signedHeaders, err := canonicalizeHeaders(headers)
	if err != nil {
		return "", "", err
	}

	path := u.EscapedPath()
	if s != nil && s.disableDoubleEscape {
		path = u.Path
	}

	canonical := strings.Join([]string{
		strings.ToUpper(method),
		canonicalURI(path),
		canonicalQuery(u.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	return canonical, signedHeaders, nil
}

// StringToSign builds the string that is signed with the derived key.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))

	return strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// DeriveSigningKey runs the HMAC chain
// "AWS4"+secret -> date -> region -> service -> "aws4_request".
func DeriveSigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)

	return hmacSHA256(kService, scopeTerminator)
}

// PayloadHash returns the hex SHA-256 of body.
func PayloadHash(body []byte) string {
	if len(body) == 0 {
		return EmptyPayloadHash
	}

	sum := sha256.Sum256(body)

	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))

	return mac.Sum(nil)
}

// cloneCanonical copies headers under canonical keys, merging entries
// whose names differ only in case.
func cloneCanonical(headers http.Header) http.Header {
	out := make(http.Header, len(headers)+3)
	for name, vs := range headers {
		key := http.CanonicalHeaderKey(name)
		out[key] = append(out[key], vs...)
	}

	return out
}

// canonicalizeHeaders lower-cases names, trims values, collapses inner
// whitespace and joins repeated values with commas. Authorization is
// never signed.
func canonicalizeHeaders(headers http.Header) (string, string, error) {
	values := make(map[string][]string, len(headers))
	names := make([]string, 0, len(headers))

	for name, vs := range headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return "", "", fmt.Errorf("%w: name %q", ErrInvalidHeader, name)
		}

		lower := strings.ToLower(name)
		if lower == "authorization" {
			continue
		}

		for _, v := range vs {
			if !httpguts.ValidHeaderFieldValue(v) {
				return "", "", fmt.Errorf("%w: value of %q", ErrInvalidHeader, name)
			}

			if _, ok := values[lower]; !ok {
				names = append(names, lower)
			}

			values[lower] = append(values[lower], strings.Join(strings.Fields(v), " "))
		}
	}

	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(values[name], ","))
		b.WriteByte('\n')
	}

	return b.String(), strings.Join(names, ";"), nil
}

// canonicalURI encodes every byte of path except unreserved characters
// and "/".
func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}

	return escape(path, true)
}

// canonicalQuery encodes names and values, then sorts by encoded name and
// then by encoded value, so "max" precedes "max-keys".
func canonicalQuery(query url.Values) string {
	type pair struct {
		key, value string
	}

	pairs := make([]pair, 0, len(query))
	for k, vs := range query {
		ek := escape(k, false)
		for _, v := range vs {
			pairs = append(pairs, pair{key: ek, value: escape(v, false)})
		}
	}

	slices.SortFunc(pairs, func(a, b pair) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}

		return strings.Compare(a.value, b.value)
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

const upperHex = "0123456789ABCDEF"

func escape(s string, keepSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch {
		case 'A' <= ch && ch <= 'Z', 'a' <= ch && ch <= 'z', '0' <= ch && ch <= '9',
			ch == '-', ch == '.', ch == '_', ch == '~':
			b.WriteByte(ch)
		case ch == '/' && keepSlash:
			b.WriteByte(ch)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[ch>>4])
			b.WriteByte(upperHex[ch&0x0f])
		}
	}

	return b.String()
}

// hostHeader returns the lower-cased host of u without a default port.
func hostHeader(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	scheme := strings.ToLower(u.Scheme)
	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}

		return host
	}

	return net.JoinHostPort(host, port)
}

func (s *Signer) clock() func() time.Time {
	if s == nil || s.now == nil {
		return time.Now
	}

	return s.now
}
