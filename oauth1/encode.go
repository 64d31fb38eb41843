package oauth1

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// PercentEncode encodes s per RFC 5849 Section 3.6: every byte outside
// the RFC 3986 unreserved set (ALPHA, DIGIT, "-", ".", "_", "~") is
// encoded as %XX with uppercase hex. Spaces become %20, never "+".
func PercentEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}

	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if unreserved(ch) {
			b.WriteByte(ch)
			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperHex[ch>>4])
		b.WriteByte(upperHex[ch&0x0f])
	}

	return b.String()
}

func unreserved(ch byte) bool {
	switch {
	case 'A' <= ch && ch <= 'Z', 'a' <= ch && ch <= 'z', '0' <= ch && ch <= '9':
		return true
	case ch == '-', ch == '.', ch == '_', ch == '~':
		return true
	default:
		return false
	}
}

// BaseStringURI returns the base string URI of rawURL per RFC 5849
// Section 3.4.1.2 together with its query parameters. Scheme and host are
// lower-cased, default ports are dropped and the query and fragment are
// removed.
func BaseStringURI(rawURL string) (string, url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host = net.JoinHostPort(host, port)
		}
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("%w: query: %v", ErrInvalidURL, err)
	}

	return scheme + "://" + host + path, query, nil
}

// ParameterString normalizes params per RFC 5849 Section 3.4.1.3.2: each
// name and value is percent-encoded, pairs are sorted by encoded name and
// then by encoded value, and joined as name=value with "&".
func ParameterString(params url.Values) string {
	type pair struct {
		key, value string
	}

	pairs := make([]pair, 0, len(params))
	for k, values := range params {
		ek := PercentEncode(k)
		for _, v := range values {
			pairs = append(pairs, pair{key: ek, value: PercentEncode(v)})
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

// SignatureBaseString builds the string that is signed per RFC 5849
// Section 3.4.1.1:
//
//	UPPER(method) & encode(baseURI) & encode(ParameterString(params))
func SignatureBaseString(method, baseURI string, params url.Values) string {
	return strings.ToUpper(method) + "&" + PercentEncode(baseURI) + "&" + PercentEncode(ParameterString(params))
}
