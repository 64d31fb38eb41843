package oauth2flow

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

func (m *Manager) newToken(t *oauth2.Token) Token {
	out := Token{
		AccessToken:  t.AccessToken,
		TokenType:    TokenTypeBearer,
		RefreshToken: t.RefreshToken,
	}

	if secs, ok := expiresIn(t.Extra("expires_in")); ok {
		out.ExpiresIn = &secs
	} else if !t.Expiry.IsZero() {
		secs := int64(math.Round(t.Expiry.Sub(m.now()).Seconds()))
		out.ExpiresIn = &secs
	}

	if scope, ok := t.Extra("scope").(string); ok {
		out.Scope = scope
	}

	return out
}

// expiresIn reads the wire expires_in value, which arrives as a JSON
// number or, from form-encoded responses, as an int64 or string.
func expiresIn(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Expiry returns the absolute expiry of t relative to issuedAt, or the
// zero time when the server reported no lifetime.
func (t Token) Expiry(issuedAt time.Time) time.Time {
	if t.ExpiresIn == nil {
		return time.Time{}
	}

	return issuedAt.Add(time.Duration(*t.ExpiresIn) * time.Second)
}
