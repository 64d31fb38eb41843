package oauth1

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// Transport is an http.RoundTripper that signs outgoing requests with
// OAuth 1.0a.
type Transport struct {
	base        http.RoundTripper
	credentials Credentials
	signer      *Signer
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of http.DefaultTransport
// is used. Options configure the underlying Signer.
func NewTransport(base *http.Transport, c Credentials, opts ...Option) *Transport {
	var rt http.RoundTripper
	if base != nil {
		rt = base
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:        rt,
		credentials: c,
		signer:      NewSigner(opts...),
	}
}

// RoundTrip signs a clone of req and delegates to the base transport.
// Form-encoded body parameters take part in the signature.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		clone.Body = body
	}

	params, err := formParams(clone)
	if err != nil {
		return nil, err
	}

	header, err := t.signer.Authorization(t.credentials, clone.Method, clone.URL.String(), params)
	if err != nil {
		return nil, err
	}

	clone.Header.Set("Authorization", header)

	return t.base.RoundTrip(clone)
}

// formParams returns the application/x-www-form-urlencoded body
// parameters of r, restoring the body afterwards. Other content types
// contribute no parameters.
func formParams(r *http.Request) (url.Values, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return url.ParseQuery(string(body))
}
