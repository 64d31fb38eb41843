package digestauth

import (
	"fmt"
	"net/http"
	"strings"
)

// Challenge holds the parameters of a WWW-Authenticate Digest challenge
// per RFC 7616 Section 3.3.
type Challenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	Domain    string
	Algorithm Algorithm

	// QOP lists the qop options offered by the server.
	QOP []string

	// Stale reports that the previous nonce expired but the credentials
	// were valid.
	Stale bool
}

// FindChallenge returns the first Digest challenge among the
// WWW-Authenticate values of h.
func FindChallenge(h http.Header) (Challenge, error) {
	for _, value := range h.Values("WWW-Authenticate") {
		ch, err := ParseChallenge(value)
		if err == nil {
			return ch, nil
		}
	}

	return Challenge{}, ErrNoChallenge
}

// ParseChallenge parses a single WWW-Authenticate header value of the form
// `Digest realm="...", nonce="...", qop="auth,auth-int", ...`.
func ParseChallenge(header string) (Challenge, error) {
	var ch Challenge

	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "Digest") {
		return ch, ErrNoChallenge
	}

	for _, part := range splitQuoteAware(rest, ',') {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return ch, fmt.Errorf("%w: parameter %q", ErrMalformedChallenge, part)
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = unquote(strings.TrimSpace(value))

		switch key {
		case "realm":
			ch.Realm = value

		case "nonce":
			ch.Nonce = value

		case "opaque":
			ch.Opaque = value

		case "domain":
			ch.Domain = value

		case "algorithm":
			ch.Algorithm = Algorithm(value)

		case "stale":
			ch.Stale = strings.EqualFold(value, "true")

		case "qop":
			for opt := range strings.SplitSeq(value, ",") {
				if opt = strings.TrimSpace(opt); opt != "" {
					ch.QOP = append(ch.QOP, opt)
				}
			}
		}
	}

	if ch.Nonce == "" {
		return ch, fmt.Errorf("%w: missing nonce", ErrMalformedChallenge)
	}

	if _, _, err := hashFor(ch.Algorithm); err != nil {
		return ch, err
	}

	return ch, nil
}

// Credentials builds request credentials answering the challenge. qop
// auth is preferred when offered; auth-int is chosen only when it is the
// sole option, in which case the caller must set Body.
func (ch Challenge) Credentials(username, password, method, uri string) Credentials {
	c := Credentials{
		Username:  username,
		Password:  password,
		Realm:     ch.Realm,
		Nonce:     ch.Nonce,
		URI:       uri,
		Method:    method,
		Opaque:    ch.Opaque,
		Algorithm: ch.Algorithm,
	}

	for _, opt := range ch.QOP {
		if opt == QOPAuth {
			c.QOP = QOPAuth
			return c
		}

		if opt == QOPAuthInt {
			c.QOP = QOPAuthInt
		}
	}

	return c
}

// splitQuoteAware splits s on delim while respecting "..." quoted regions.
// Backslash-escaped quotes (\") inside quoted strings are handled. Each
// resulting part is trimmed of whitespace and empty parts are skipped.
func splitQuoteAware(s string, delim byte) []string {
	var result []string
	var part strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inQuote {
			if ch == '\\' && i+1 < len(s) {
				part.WriteByte(ch)
				i++
				part.WriteByte(s[i])
				continue
			}

			if ch == '"' {
				inQuote = false
			}

			part.WriteByte(ch)
			continue
		}

		if ch == '"' {
			inQuote = true
			part.WriteByte(ch)
			continue
		}

		if ch == delim {
			if p := strings.TrimSpace(part.String()); p != "" {
				result = append(result, p)
			}

			part.Reset()
			continue
		}

		part.WriteByte(ch)
	}

	if p := strings.TrimSpace(part.String()); p != "" {
		result = append(result, p)
	}

	return result
}

// unquote removes surrounding double quotes and unescapes \\ and \".
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])

			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}
