// Package digestauth computes HTTP Digest Access Authentication
// Authorization headers per RFC 2617 and RFC 7616.
//
// # Answering a Challenge
//
// Parse the server's WWW-Authenticate header and build credentials for
// the request being retried:
//
//	challenge, err := digestauth.FindChallenge(resp.Header)
//	if err != nil {
//	    return err
//	}
//
//	creds := challenge.Credentials("Mufasa", "Circle Of Life", http.MethodGet, "/dir/index.html")
//
//	header, err := digestauth.Authorization(creds)
//	if err != nil {
//	    return err
//	}
//
//	req.Header.Set("Authorization", header)
//
// # Client Nonce and Nonce Count
//
// When qop is negotiated the header carries a nonce count and a client
// nonce. Callers that reuse a server nonce should supply both explicitly
// (see NonceCount). When omitted, the nonce count defaults to 00000001
// and a fresh 32-character client nonce is drawn from the Signer's
// nonce.Source. The same values are used for the response hash and the
// emitted header.
//
// # Algorithms
//
// MD5 is the default and is kept for compatibility with servers that
// still require it. SHA-256 and the -sess variants of both are
// supported. The algorithm parameter is only emitted when configured.
package digestauth
