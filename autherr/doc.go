// Package autherr defines the error taxonomy shared by the reqauth signers
// and the OAuth 2.0 flow manager.
//
// Every failure returned by reqauth wraps exactly one of the category
// sentinels below, so callers can branch with errors.Is:
//
//	header, err := oauth1.Authorization(creds, http.MethodGet, rawURL, nil)
//	switch {
//	case errors.Is(err, autherr.ErrConfiguration):
//	    // fix the stored credentials, do not retry
//	case errors.Is(err, autherr.ErrEncoding):
//	    // a value cannot be placed in a header
//	}
//
// Failures talking to an authorization server are reported as
// *UpstreamError, which also matches ErrUpstream.
package autherr
