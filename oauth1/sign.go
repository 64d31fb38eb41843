package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vitalvas/reqauth/nonce"
	"golang.org/x/net/http/httpguts"
)

// SignatureMethod identifies the oauth_signature_method.
type SignatureMethod string

const (
	// HMACSHA1 is HMAC over SHA-1 per RFC 5849 Section 3.4.2.
	HMACSHA1 SignatureMethod = "HMAC-SHA1"

	// HMACSHA256 is HMAC over SHA-256.
	HMACSHA256 SignatureMethod = "HMAC-SHA256"
)

// DefaultVersion is the oauth_version emitted when Credentials.Version
// is empty.
const DefaultVersion = "1.0"

// nonceLength is the length of generated oauth_nonce values.
const nonceLength = 32

// Protocol parameter names.
const (
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamVersion         = "oauth_version"
)

// Credentials holds the consumer and token credentials for one request.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string

	// Token and TokenSecret are empty for requests made before a token
	// has been issued (temporary credential requests).
	Token       string
	TokenSecret string

	// SignatureMethod defaults to HMACSHA1.
	SignatureMethod SignatureMethod

	// Version defaults to DefaultVersion.
	Version string
}

func (c Credentials) method() SignatureMethod {
	if c.SignatureMethod == "" {
		return HMACSHA1
	}

	return c.SignatureMethod
}

func (c Credentials) version() string {
	if c.Version == "" {
		return DefaultVersion
	}

	return c.Version
}

// Signer produces OAuth 1.0a Authorization headers.
type Signer struct {
	source *nonce.Source
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithSource sets the random source for oauth_nonce.
func WithSource(src *nonce.Source) Option {
	return func(s *Signer) {
		s.source = src
	}
}

// WithClock sets the clock used for oauth_timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a Signer. Without options it uses nonce.Default()
// and time.Now.
func NewSigner(opts ...Option) *Signer {
	s := &Signer{
		source: nonce.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var defaultSigner = NewSigner()

// Authorization signs a request with the default Signer.
func Authorization(c Credentials, method, rawURL string, params url.Values) (string, error) {
	return defaultSigner.Authorization(c, method, rawURL, params)
}

// Authorization returns the OAuth Authorization header value for a request
// with the given method, absolute URL and additional (form body)
// parameters. A fresh nonce and timestamp are generated on every call.
func (s *Signer) Authorization(c Credentials, method, rawURL string, params url.Values) (string, error) {
	protocol, err := s.sign(c, method, rawURL, params)
	if err != nil {
		return "", err
	}

	return formatHeader(protocol)
}

// sign computes the protocol parameters, including oauth_signature.
func (s *Signer) sign(c Credentials, method, rawURL string, params url.Values) (map[string]string, error) {
	newHash, err := hashFor(c.method())
	if err != nil {
		return nil, err
	}

	if c.ConsumerKey == "" {
		return nil, ErrMissingConsumerKey
	}

	if method == "" {
		return nil, ErrMissingMethod
	}

	for k, values := range params {
		if strings.HasPrefix(k, "oauth_") && len(values) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrRepeatedProtocolParam, k)
		}
	}

	baseURI, query, err := BaseStringURI(rawURL)
	if err != nil {
		return nil, err
	}

	oauthNonce, err := s.nonceSource().Alphanumeric(nonceLength)
	if err != nil {
		return nil, err
	}

	timestamp := strconv.FormatInt(s.clock()().Unix(), 10)

	return signParams(c, newHash, method, baseURI, query, params, oauthNonce, timestamp), nil
}

// signParams assembles the protocol parameters for a fixed nonce and
// timestamp and adds oauth_signature.
func signParams(c Credentials, newHash func() hash.Hash, method, baseURI string, query, params url.Values, oauthNonce, timestamp string) map[string]string {
	protocol := map[string]string{
		ParamConsumerKey:     c.ConsumerKey,
		ParamNonce:           oauthNonce,
		ParamSignatureMethod: string(c.method()),
		ParamTimestamp:       timestamp,
		ParamVersion:         c.version(),
	}

	if c.Token != "" {
		protocol[ParamToken] = c.Token
	}

	// Caller supplied oauth_* parameters join the protocol set unless
	// they collide with a generated one.
	for k, values := range params {
		if !strings.HasPrefix(k, "oauth_") || len(values) == 0 {
			continue
		}

		if _, exists := protocol[k]; !exists && k != ParamSignature {
			protocol[k] = values[0]
		}
	}

	all := make(url.Values, len(query)+len(params)+len(protocol))
	for k, values := range query {
		all[k] = append(all[k], values...)
	}

	for k, values := range params {
		if strings.HasPrefix(k, "oauth_") {
			continue
		}

		all[k] = append(all[k], values...)
	}

	for k, v := range protocol {
		all[k] = []string{v}
	}

	base := SignatureBaseString(method, baseURI, all)
	key := PercentEncode(c.ConsumerSecret) + "&" + PercentEncode(c.TokenSecret)

	mac := hmac.New(newHash, []byte(key))
	mac.Write([]byte(base))

	protocol[ParamSignature] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return protocol
}

// formatHeader renders protocol parameters per RFC 5849 Section 3.5.1,
// sorted by name so output is reproducible.
func formatHeader(protocol map[string]string) (string, error) {
	keys := make([]string, 0, len(protocol))
	for k := range protocol {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	var b strings.Builder
	b.WriteString("OAuth ")

	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}

		fmt.Fprintf(&b, "%s=%q", PercentEncode(k), PercentEncode(protocol[k]))
	}

	header := b.String()
	if !httpguts.ValidHeaderFieldValue(header) {
		return "", ErrInvalidHeader
	}

	return header, nil
}

func hashFor(m SignatureMethod) (func() hash.Hash, error) {
	switch m {
	case HMACSHA1:
		return sha1.New, nil
	case HMACSHA256:
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSignatureMethod, m)
	}
}

func (s *Signer) nonceSource() *nonce.Source {
	if s == nil || s.source == nil {
		return nonce.Default()
	}

	return s.source
}

func (s *Signer) clock() func() time.Time {
	if s == nil || s.now == nil {
		return time.Now
	}

	return s.now
}
