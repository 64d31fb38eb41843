package authscheme

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/vitalvas/reqauth/digestauth"
)

// Transport is an http.RoundTripper that authenticates outgoing requests
// under a Scheme.
type Transport struct {
	base    http.RoundTripper
	scheme  Scheme
	applier *Applier
}

// NewTransport creates a Transport that delegates to base after applying
// s. When base is nil, a clone of http.DefaultTransport is used. Options
// configure the underlying Applier.
func NewTransport(base *http.Transport, s Scheme, opts ...Option) *Transport {
	var rt http.RoundTripper
	if base != nil {
		rt = base
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:    rt,
		scheme:  s,
		applier: NewApplier(opts...),
	}
}

// RoundTrip authenticates a clone of req and delegates to the base
// transport. AWSV4 schemes without static keys are resolved from the
// default credential chain on every call. A Digest scheme without a
// server nonce first sends the request unauthenticated and answers the
// returned challenge.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}

	s, err := Resolve(req.Context(), t.scheme)
	if err != nil {
		return nil, err
	}

	if d, ok := s.(Digest); ok && d.Credentials.Nonce == "" {
		resp, err := t.base.RoundTrip(cloneWithBody(req, body))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		ch, err := digestauth.FindChallenge(resp.Header)
		if err != nil {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		creds := ch.Credentials(d.Credentials.Username, d.Credentials.Password, req.Method, req.URL.RequestURI())
		creds.Body = body
		s = Digest{Credentials: creds}
	}

	clone := cloneWithBody(req, body)

	res, err := t.applier.Apply(s, Request{
		Method: clone.Method,
		URL:    clone.URL.String(),
		Header: signingHeader(clone),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	res.ApplyTo(clone)

	return t.base.RoundTrip(clone)
}

// signingHeader returns the request headers with Host set from the
// request host, so signatures cover the host actually sent.
func signingHeader(r *http.Request) http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}

	if r.Host != "" {
		h.Set("Host", r.Host)
	}

	return h
}

func cloneWithBody(req *http.Request, body []byte) *http.Request {
	clone := req.Clone(req.Context())

	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	return clone
}

// readBody reads the request body, preferring GetBody so req itself is
// left untouched.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	rc := req.Body
	if req.GetBody != nil {
		var err error
		if rc, err = req.GetBody(); err != nil {
			return nil, err
		}
	}

	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("authscheme: read body: %w", err)
	}

	return body, nil
}
