// Package auth provides bearer-token authentication for the API client.
// Tokens are either set directly (from configuration) or loaded from a
// token-generation response captured in the data store.
package auth

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"testrig/internal/datastore"
)

// Helper holds the active token and produces request headers. The zero
// value is an unauthenticated helper.
type Helper struct {
	source oauth2.TokenSource
}

// New creates a helper for a static bearer token. An empty token yields an
// unauthenticated helper.
func New(token string) *Helper {
	h := &Helper{}
	if token != "" {
		h.SetToken(token)
	}
	return h
}

// SetToken replaces the active token.
func (h *Helper) SetToken(token string) {
	h.source = oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// SetTokenSource replaces the token source, for flows that refresh.
func (h *Helper) SetTokenSource(src oauth2.TokenSource) {
	h.source = src
}

// Authenticated reports whether a usable token is present.
func (h *Helper) Authenticated() bool {
	if h.source == nil {
		return false
	}
	tok, err := h.source.Token()
	return err == nil && tok.Valid()
}

// Headers returns the authentication headers for a request, empty when
// unauthenticated.
func (h *Helper) Headers() (map[string]string, error) {
	if h.source == nil {
		return map[string]string{}, nil
	}
	tok, err := h.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok.AccessToken}, nil
}

// FromResponseFile loads tokens from a token-generation response stored in
// the data store (auth_token plus optional refresh_token and expiry), as
// captured by the token-generation scenario.
func FromResponseFile(store *datastore.Store, parts ...string) (*Helper, error) {
	access, err := store.JSONValue("auth_token", parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth token: %w", err)
	}
	accessStr, ok := access.(string)
	if !ok || accessStr == "" {
		return nil, fmt.Errorf("auth_token in %v is not a string", parts)
	}

	tok := &oauth2.Token{
		AccessToken: accessStr,
		TokenType:   "Bearer",
	}
	if refresh, err := store.JSONValue("refresh_token", parts...); err == nil {
		if refreshStr, ok := refresh.(string); ok {
			tok.RefreshToken = refreshStr
		}
	}
	if expiry, err := store.JSONValue("expires_at", parts...); err == nil {
		if expiryStr, ok := expiry.(string); ok {
			if ts, err := time.Parse(time.RFC3339, expiryStr); err == nil {
				tok.Expiry = ts
			}
		}
	}

	h := &Helper{}
	h.SetTokenSource(oauth2.StaticTokenSource(tok))
	return h, nil
}
