// Package oauth1 signs requests with OAuth 1.0a HMAC signatures per
// RFC 5849.
//
// # Signing Requests
//
//	header, err := oauth1.Authorization(oauth1.Credentials{
//	    ConsumerKey:    "dpf43f3p2l4k3l03",
//	    ConsumerSecret: "kd94hf93k423kf44",
//	    Token:          "nnch734d00sl2jdk",
//	    TokenSecret:    "pfkkdhi9sl3r4s00",
//	}, http.MethodGet, "http://photos.example.net/photos?file=vacation.jpg", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req.Header.Set("Authorization", header)
//
// Query parameters of the URL always take part in the signature. Pass
// form-encoded body parameters as the params argument. Caller parameters
// whose names start with "oauth_" (oauth_callback, oauth_verifier) are
// treated as protocol parameters and also emitted in the header.
//
// # Signature Methods
//
// HMAC-SHA1 signs with HMAC over SHA-1 as RFC 5849 Section 3.4.2 defines
// it, and is the default. HMAC-SHA256 signs with HMAC over SHA-256 for
// providers that require it. Any other method is a configuration error.
//
// # Client Transport
//
// NewTransport returns an http.RoundTripper that signs every outgoing
// request, including form-encoded body parameters:
//
//	client := &http.Client{
//	    Transport: oauth1.NewTransport(nil, creds),
//	}
package oauth1
