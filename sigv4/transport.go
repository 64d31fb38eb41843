package sigv4

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Transport is an http.RoundTripper that signs outgoing requests with
// SigV4.
type Transport struct {
	base        http.RoundTripper
	credentials Credentials
	signer      *Signer
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of http.DefaultTransport
// is used.
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

// RoundTrip signs a clone of req, hashing its body, and delegates to the
// base transport.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		clone.Body = body
	}

	body, err := readAndRestoreBody(clone)
	if err != nil {
		return nil, err
	}

	headers := clone.Header.Clone()
	if clone.Host != "" {
		headers.Set(HeaderHost, clone.Host)
	}

	signed, err := t.signer.Sign(t.credentials, clone.Method, clone.URL.String(), headers, body)
	if err != nil {
		return nil, err
	}

	clone.Host = signed.Get(HeaderHost)
	signed.Del(HeaderHost)
	clone.Header = signed

	return t.base.RoundTrip(clone)
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("sigv4: read body: %w", err)
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

// CredentialsFromProvider retrieves a key pair from an aws-sdk-go-v2
// credentials provider and scopes it to region and service.
func CredentialsFromProvider(ctx context.Context, p aws.CredentialsProvider, region, service string) (Credentials, error) {
	if p == nil {
		return Credentials{}, fmt.Errorf("%w: nil provider", ErrCredentialProvider)
	}

	v, err := p.Retrieve(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrCredentialProvider, err)
	}

	return Credentials{
		AccessKey:    v.AccessKeyID,
		SecretKey:    v.SecretAccessKey,
		SessionToken: v.SessionToken,
		Region:       region,
		Service:      service,
	}, nil
}
