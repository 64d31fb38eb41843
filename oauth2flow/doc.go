// Package oauth2flow drives the OAuth 2.0 authorization-code (with
// optional PKCE), client-credentials and refresh-token grants against a
// remote authorization server, and parses redirect callbacks.
//
// A Manager holds only static client configuration. The correlation data
// of an authorization-code flow (state token and PKCE verifier) is
// returned to the caller as a FlowState value, which must be stored until
// the redirect arrives and passed back to Exchange:
//
//	m := oauth2flow.New(cfg)
//
//	authURL, flow, err := m.AuthorizationURL()
//	// persist flow, send the user to authURL
//
//	code, state, err := oauth2flow.ParseCallback(redirectedURL)
//	token, err := m.Exchange(ctx, flow, code, state)
//
// Exchange compares the returned state with the one in FlowState before
// any network call. A mismatch returns ErrStateMismatch.
//
// Network calls are made once and never retried. Failures are returned as
// *autherr.UpstreamError.
package oauth2flow
