package authscheme

import (
	"bytes"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/reqauth/autherr"
	"github.com/vitalvas/reqauth/digestauth"
	"github.com/vitalvas/reqauth/nonce"
	"github.com/vitalvas/reqauth/oauth1"
	"github.com/vitalvas/reqauth/oauth2flow"
	"github.com/vitalvas/reqauth/sigv4"
)

func TestApply(t *testing.T) {
	get := Request{Method: http.MethodGet, URL: "https://api.example.com/items?page=2"}

	t.Run("none", func(t *testing.T) {
		res, err := Apply(None{}, get)
		require.NoError(t, err)
		assert.Empty(t, res.Header)
		assert.Empty(t, res.Query)

		res, err = Apply(nil, get)
		require.NoError(t, err)
		assert.Empty(t, res.Header)
	})

	t.Run("basic", func(t *testing.T) {
		res, err := Apply(Basic{Username: "user", Password: "pass"}, get)
		require.NoError(t, err)
		assert.Equal(t, "Basic dXNlcjpwYXNz", res.Header.Get("Authorization"))
	})

	t.Run("basic rejects colon in username", func(t *testing.T) {
		_, err := Apply(Basic{Username: "a:b"}, get)
		assert.ErrorIs(t, err, ErrInvalidHeader)
		assert.ErrorIs(t, err, autherr.ErrEncoding)
	})

	t.Run("bearer", func(t *testing.T) {
		res, err := Apply(Bearer{Token: "abc"}, get)
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", res.Header.Get("Authorization"))
	})

	t.Run("bearer with line break", func(t *testing.T) {
		_, err := Apply(Bearer{Token: "abc\r\nX-Evil: 1"}, get)
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("api key header", func(t *testing.T) {
		res, err := Apply(APIKey{Name: "X-API-Key", Value: "k1"}, get)
		require.NoError(t, err)
		assert.Equal(t, "k1", res.Header.Get("X-API-Key"))
		assert.Empty(t, res.Query)
	})

	t.Run("api key query", func(t *testing.T) {
		res, err := Apply(APIKey{Name: "api_key", Value: "k 1", In: InQuery}, get)
		require.NoError(t, err)
		assert.Equal(t, "k 1", res.Query.Get("api_key"))
		assert.Empty(t, res.Header)
	})

	t.Run("api key invalid header name", func(t *testing.T) {
		_, err := Apply(APIKey{Name: "X API", Value: "k"}, get)
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("digest defaults method and uri from request", func(t *testing.T) {
		s := Digest{Credentials: digestauth.Credentials{
			Username: "Mufasa",
			Password: "Circle Of Life",
			Realm:    "testrealm@host.com",
			Nonce:    "dcd98b7102dd2f0e8b11d0f600bfb0c093",
			QOP:      digestauth.QOPAuth,
			NC:       "00000001",
			CNonce:   "0a4f113b",
			Opaque:   "5ccc069c403ebaf9f0171e9517f40e41",
		}}

		res, err := Apply(s, Request{Method: http.MethodGet, URL: "http://www.nowhere.org/dir/index.html"})
		require.NoError(t, err)

		header := res.Header.Get("Authorization")
		assert.Contains(t, header, `uri="/dir/index.html"`)
		assert.Contains(t, header, `response="6629fae49393a05397450978507c4ef1"`)
	})

	t.Run("oauth1 signs form body parameters", func(t *testing.T) {
		now := func() time.Time { return time.Unix(1318622958, 0) }
		newSigner := func() *oauth1.Signer {
			return oauth1.NewSigner(
				oauth1.WithSource(nonce.New(bytes.NewReader(make([]byte, 64)))),
				oauth1.WithClock(now),
			)
		}

		creds := oauth1.Credentials{ConsumerKey: "ck", ConsumerSecret: "cs"}
		req := Request{
			Method: http.MethodPost,
			URL:    "https://api.example.com/statuses?include=1",
			Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
			Body:   []byte("status=hello+world"),
		}

		res, err := NewApplier(WithOAuth1Signer(newSigner())).Apply(OAuth1{Credentials: creds}, req)
		require.NoError(t, err)

		want, err := newSigner().Authorization(creds, req.Method, req.URL, url.Values{"status": {"hello world"}})
		require.NoError(t, err)

		assert.Equal(t, want, res.Header.Get("Authorization"))
	})

	t.Run("oauth1 ignores non-form body", func(t *testing.T) {
		now := func() time.Time { return time.Unix(1318622958, 0) }
		newSigner := func() *oauth1.Signer {
			return oauth1.NewSigner(
				oauth1.WithSource(nonce.New(bytes.NewReader(make([]byte, 64)))),
				oauth1.WithClock(now),
			)
		}

		creds := oauth1.Credentials{ConsumerKey: "ck", ConsumerSecret: "cs"}
		req := Request{
			Method: http.MethodPost,
			URL:    "https://api.example.com/statuses",
			Header: http.Header{"Content-Type": {"application/json"}},
			Body:   []byte(`{"status":"x"}`),
		}

		res, err := NewApplier(WithOAuth1Signer(newSigner())).Apply(OAuth1{Credentials: creds}, req)
		require.NoError(t, err)

		want, err := newSigner().Authorization(creds, req.Method, req.URL, nil)
		require.NoError(t, err)

		assert.Equal(t, want, res.Header.Get("Authorization"))
	})

	t.Run("aws returns only added headers", func(t *testing.T) {
		signer := sigv4.NewSigner(sigv4.WithClock(func() time.Time {
			return time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
		}))

		s := AWSV4{Credentials: sigv4.Credentials{
			AccessKey: "AKIDEXAMPLE",
			SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
			Region:    "us-east-1",
			Service:   "iam",
		}}

		res, err := NewApplier(WithSigV4Signer(signer)).Apply(s, Request{
			Method: http.MethodGet,
			URL:    "https://iam.amazonaws.com/?Action=ListUsers&Version=2010-05-08",
			Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded; charset=utf-8"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "20150830T123600Z", res.Header.Get("X-Amz-Date"))
		assert.Equal(t, "iam.amazonaws.com", res.Header.Get("Host"))
		assert.Empty(t, res.Header.Get("Content-Type"))
		assert.Contains(t, res.Header.Get("Authorization"),
			"Signature=5d672d79c15b13162d9279b0855cfba6789a8edb4c82c400e06b5924a6f2b5d7")
	})

	t.Run("aws without keys", func(t *testing.T) {
		_, err := Apply(AWSV4{Credentials: sigv4.Credentials{Region: "us-east-1", Service: "s3"}}, get)
		assert.ErrorIs(t, err, sigv4.ErrMissingCredential)
	})

	t.Run("oauth2 access token", func(t *testing.T) {
		res, err := Apply(OAuth2{Token: oauth2flow.Token{AccessToken: "at"}}, get)
		require.NoError(t, err)
		assert.Equal(t, "Bearer at", res.Header.Get("Authorization"))
	})

	t.Run("oauth2 without token", func(t *testing.T) {
		_, err := Apply(OAuth2{Config: oauth2flow.Config{ClientID: "c"}}, get)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := Apply(Bearer{Token: "t"}, Request{Method: http.MethodGet, URL: "http://[::1"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestResultApplyTo(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/items?page=2", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "stale")

	res := Result{
		Header: http.Header{
			"Authorization": {"Bearer fresh"},
			"Host":          {"api.example.com"},
		},
		Query: url.Values{"api_key": {"k"}},
	}

	res.ApplyTo(req)

	assert.Equal(t, []string{"Bearer fresh"}, req.Header.Values("Authorization"))
	assert.Equal(t, "api.example.com", req.Host)
	assert.Empty(t, req.Header.Get("Host"))
	assert.Equal(t, "2", req.URL.Query().Get("page"))
	assert.Equal(t, "k", req.URL.Query().Get("api_key"))
}

func TestResultMergeQuery(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		query url.Values
		want  string
	}{
		{
			name:  "keeps order and encoding of existing pairs",
			raw:   "z=1&q=a%20b&a=2",
			query: url.Values{"api_key": {"k"}},
			want:  "z=1&q=a%20b&a=2&api_key=k",
		},
		{
			name:  "replaces pair with the same name",
			raw:   "api_key=old&page=2",
			query: url.Values{"api_key": {"new"}},
			want:  "page=2&api_key=new",
		},
		{
			name:  "empty raw query",
			raw:   "",
			query: url.Values{"api_key": {"k 1"}},
			want:  "api_key=k+1",
		},
		{
			name: "nothing to add",
			raw:  "q=a%20b",
			want: "q=a%20b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result{Query: tt.query}.MergeQuery(tt.raw))
		})
	}

	t.Run("apply to keeps caller query", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "https://api.example.com/search?q=a%20b&b=1&a=2", nil)
		require.NoError(t, err)

		Result{Query: url.Values{"api_key": {"k"}}}.ApplyTo(req)

		assert.Equal(t, "q=a%20b&b=1&a=2&api_key=k", req.URL.RawQuery)
	})
}
