// Package authscheme resolves stored authentication settings into one of
// a closed set of schemes and applies it to outgoing requests.
//
// A Scheme is resolved once, where configuration is read, from a type tag
// and a JSON payload:
//
//	s, err := authscheme.Parse("bearer", `{"token":"abc"}`)
//
// or from a named profile in a YAML file:
//
//	profiles, err := authscheme.LoadProfiles("reqauth.yaml")
//	s, err := profiles.Scheme("github")
//
// Apply then returns the headers and query parameters that authenticate a
// request under that scheme:
//
//	res, err := authscheme.Apply(s, authscheme.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.example.com/items",
//	})
//
// Transport applies a Scheme to every request sent through an
// http.Client. For Digest without a server nonce it performs the
// challenge round trip first.
//
// # Supported Schemes
//
//	Kind      Variant  Payload
//	none      None     -
//	basic     Basic    username, password
//	bearer    Bearer   token
//	api-key   APIKey   key, value, in (header or query)
//	digest    Digest   digestauth.Credentials
//	oauth1    OAuth1   oauth1.Credentials
//	aws       AWSV4    sigv4.Credentials
//	oauth2    OAuth2   oauth2flow.Config and an issued access token
package authscheme
