// Package sigv4 signs requests with AWS Signature Version 4.
//
// The four steps run in order on every call and none can be skipped:
//
//  1. Build the canonical request: method, canonical URI, canonical query
//     string, canonical headers, signed header list and the hex SHA-256 of
//     the payload.
//  2. Build the string to sign from the algorithm, the request timestamp,
//     the credential scope (date/region/service/aws4_request) and the hex
//     SHA-256 of the canonical request.
//  3. Derive the signing key through the HMAC chain
//     "AWS4"+secret -> date -> region -> service -> "aws4_request".
//  4. HMAC the string to sign with the derived key.
//
// # Signing Headers
//
// Sign returns a new header set with Host, X-Amz-Date, the optional
// X-Amz-Security-Token and Authorization added. Every header in the set
// is signed, so the SignedHeaders list always matches the canonical
// request:
//
//	signed, err := sigv4.Sign(sigv4.Credentials{
//	    AccessKey: "AKIDEXAMPLE",
//	    SecretKey: secret,
//	    Region:    "us-east-1",
//	    Service:   "iam",
//	}, http.MethodGet, "https://iam.amazonaws.com/?Action=ListUsers&Version=2010-05-08", headers, nil)
//
// # Client Transport
//
// NewTransport returns an http.RoundTripper that signs every outgoing
// request, hashing its body:
//
//	client := &http.Client{
//	    Transport: sigv4.NewTransport(nil, creds),
//	}
//
// # SDK Credentials
//
// CredentialsFromProvider adapts any aws.CredentialsProvider from
// aws-sdk-go-v2, such as the default chain from config.LoadDefaultConfig.
package sigv4
