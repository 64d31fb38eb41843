package digestauth

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"unicode/utf8"

	"github.com/vitalvas/reqauth/nonce"
	"golang.org/x/net/http/httpguts"
)

// Algorithm identifies the digest hash algorithm per RFC 7616 Section 3.3.
type Algorithm string

const (
	// AlgorithmMD5 is the RFC 2617 default.
	AlgorithmMD5 Algorithm = "MD5"

	// AlgorithmMD5Sess is MD5 with a session key bound to the client nonce.
	AlgorithmMD5Sess Algorithm = "MD5-sess"

	// AlgorithmSHA256 is SHA-256 per RFC 7616.
	AlgorithmSHA256 Algorithm = "SHA-256"

	// AlgorithmSHA256Sess is SHA-256 with a session key.
	AlgorithmSHA256Sess Algorithm = "SHA-256-sess"
)

// Quality of protection values.
const (
	QOPAuth    = "auth"
	QOPAuthInt = "auth-int"
)

// DefaultNonceCount is used when a qop is set and no nonce count is given.
const DefaultNonceCount = "00000001"

// cnonceLength is the length of generated client nonces.
const cnonceLength = 32

// Credentials holds the challenge/response state for one request.
type Credentials struct {
	Username string
	Password string
	Realm    string

	// Nonce is the server nonce from the challenge.
	Nonce string

	// URI is the request-target as sent on the request line.
	URI    string
	Method string

	// QOP selects the response formula. Empty means the RFC 2069
	// compatible form without nc and cnonce.
	QOP string

	// NC is the nonce count. Defaults to DefaultNonceCount when QOP is set.
	NC string

	// CNonce is the client nonce. Generated when empty and required.
	CNonce string

	Opaque string

	// Algorithm defaults to MD5 and is only emitted when set.
	Algorithm Algorithm

	// Body is the entity body, hashed into HA2 for qop auth-int.
	Body []byte
}

// NonceCount formats n as the 8 hex digit nc value.
func NonceCount(n uint32) string {
	return fmt.Sprintf("%08x", n)
}

// Signer computes Digest Authorization headers. The zero value uses the
// default nonce.Source.
type Signer struct {
	source *nonce.Source
}

// NewSigner returns a Signer drawing client nonces from src. A nil src
// selects nonce.Default().
func NewSigner(src *nonce.Source) *Signer {
	if src == nil {
		src = nonce.Default()
	}

	return &Signer{source: src}
}

var defaultSigner = NewSigner(nil)

// Authorization computes the Authorization header value for c using the
// default Signer.
func Authorization(c Credentials) (string, error) {
	return defaultSigner.Authorization(c)
}

// Authorization computes the Authorization header value for c.
func (s *Signer) Authorization(c Credentials) (string, error) {
	if err := validate(c); err != nil {
		return "", err
	}

	newHash, sess, err := hashFor(c.Algorithm)
	if err != nil {
		return "", err
	}

	// nc and cnonce are resolved once and reused for the hash and header.
	nc := c.NC
	cnonce := c.CNonce

	if c.QOP != "" && nc == "" {
		nc = DefaultNonceCount
	}

	if (c.QOP != "" || sess) && cnonce == "" {
		cnonce, err = s.nonceSource().Alphanumeric(cnonceLength)
		if err != nil {
			return "", err
		}
	}

	h := func(parts ...string) string {
		return hexHash(newHash, strings.Join(parts, ":"))
	}

	ha1 := h(c.Username, c.Realm, c.Password)
	if sess {
		ha1 = h(ha1, c.Nonce, cnonce)
	}

	ha2 := h(c.Method, c.URI)
	if c.QOP == QOPAuthInt {
		ha2 = h(c.Method, c.URI, hexHash(newHash, string(c.Body)))
	}

	var response string
	if c.QOP != "" {
		response = h(ha1, c.Nonce, nc, cnonce, c.QOP, ha2)
	} else {
		response = h(ha1, c.Nonce, ha2)
	}

	return buildHeader(c, nc, cnonce, response)
}

func (s *Signer) nonceSource() *nonce.Source {
	if s == nil || s.source == nil {
		return nonce.Default()
	}

	return s.source
}

// buildHeader renders the Digest credentials per RFC 2617 Section 3.2.2.
func buildHeader(c Credentials, nc, cnonce, response string) (string, error) {
	var b strings.Builder
	b.WriteString("Digest ")

	quoted := []struct {
		key, value string
	}{
		{"username", c.Username},
		{"realm", c.Realm},
		{"nonce", c.Nonce},
		{"uri", c.URI},
		{"response", response},
	}

	for i, p := range quoted {
		if i > 0 {
			b.WriteString(", ")
		}

		q, err := quoteString(p.value)
		if err != nil {
			return "", fmt.Errorf("%w: %s", err, p.key)
		}

		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(q)
	}

	if c.Algorithm != "" {
		b.WriteString(", algorithm=")
		b.WriteString(string(c.Algorithm))
	}

	if c.QOP != "" {
		qnc, err := quoteString(nc)
		if err != nil {
			return "", fmt.Errorf("%w: nc", err)
		}

		qcnonce, err := quoteString(cnonce)
		if err != nil {
			return "", fmt.Errorf("%w: cnonce", err)
		}

		b.WriteString(", qop=")
		b.WriteString(c.QOP)
		b.WriteString(", nc=")
		b.WriteString(qnc)
		b.WriteString(", cnonce=")
		b.WriteString(qcnonce)
	}

	if c.Opaque != "" {
		q, err := quoteString(c.Opaque)
		if err != nil {
			return "", fmt.Errorf("%w: opaque", err)
		}

		b.WriteString(", opaque=")
		b.WriteString(q)
	}

	header := b.String()
	if !httpguts.ValidHeaderFieldValue(header) {
		return "", ErrInvalidValue
	}

	return header, nil
}

func validate(c Credentials) error {
	required := []struct {
		name, value string
	}{
		{"username", c.Username},
		{"nonce", c.Nonce},
		{"uri", c.URI},
		{"method", c.Method},
	}

	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	switch c.QOP {
	case "", QOPAuth, QOPAuthInt:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedQOP, c.QOP)
	}

	fields := []string{c.Username, c.Password, c.Realm, c.Nonce, c.URI, c.Method, c.NC, c.CNonce, c.Opaque}
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return fmt.Errorf("%w: invalid UTF-8", ErrInvalidValue)
		}
	}

	return nil
}

// hashFor returns the hash constructor for alg and whether it is a
// session variant.
func hashFor(alg Algorithm) (func() hash.Hash, bool, error) {
	switch alg {
	case "", AlgorithmMD5:
		return md5.New, false, nil
	case AlgorithmMD5Sess:
		return md5.New, true, nil
	case AlgorithmSHA256:
		return sha256.New, false, nil
	case AlgorithmSHA256Sess:
		return sha256.New, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

func hexHash(newHash func() hash.Hash, s string) string {
	h := newHash()
	h.Write([]byte(s))

	return hex.EncodeToString(h.Sum(nil))
}

// quoteString produces an RFC 7230 quoted-string. Backslash and
// double-quote are escaped; control characters cannot be represented.
func quoteString(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if (ch < 0x20 && ch != '\t') || ch == 0x7f {
			return "", ErrInvalidValue
		}

		if ch == '\\' || ch == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(ch)
	}

	b.WriteByte('"')

	return b.String(), nil
}
