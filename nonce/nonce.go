// Package nonce supplies random values for nonces, client nonces, OAuth
// state tokens and PKCE verifiers.
//
// A Source wraps an io.Reader so that tests can substitute a
// deterministic stream. The default Source reads from crypto/rand and is
// safe for concurrent use.
package nonce

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// alphabet is the character set used by Alphanumeric.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiased is the largest byte value that maps onto alphabet without
// modulo bias (62 * 4 = 248).
const maxUnbiased = 248

// ErrInvalidLength is returned when a non-positive length is requested.
var ErrInvalidLength = errors.New("nonce: length must be positive")

// Source produces random values from an underlying reader.
type Source struct {
	r io.Reader
}

var defaultSource = &Source{r: rand.Reader}

// Default returns the process-wide Source backed by crypto/rand.
func Default() *Source {
	return defaultSource
}

// New returns a Source reading from r. When r is nil, crypto/rand is used.
//
// The returned Source is safe for concurrent use only if r is.
func New(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}

	return &Source{r: r}
}

// Bytes returns n random bytes.
func (s *Source) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(s.reader(), b); err != nil {
		return nil, fmt.Errorf("nonce: read random bytes: %w", err)
	}

	return b, nil
}

// Alphanumeric returns a random string of n characters drawn uniformly
// from [A-Za-z0-9].
func (s *Source) Alphanumeric(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(out) < n {
		if _, err := io.ReadFull(s.reader(), buf); err != nil {
			return "", fmt.Errorf("nonce: read random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}

			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// URLSafe returns n random bytes encoded as unpadded base64url.
func (s *Source) URLSafe(n int) (string, error) {
	b, err := s.Bytes(n)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Source) reader() io.Reader {
	if s == nil || s.r == nil {
		return rand.Reader
	}

	return s.r
}
