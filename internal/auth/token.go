package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenStatus is the freshness of a token at a given instant.
type TokenStatus string

const (
	// TokenValid means the token is comfortably inside its lifetime.
	TokenValid TokenStatus = "valid"
	// TokenExpiring means the token is usable but inside the refresh window.
	TokenExpiring TokenStatus = "expiring"
	// TokenExpired means the token is past its expiry or inside the safety
	// margin and must not be sent.
	TokenExpired TokenStatus = "expired"
)

// Token is an NMC API token.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TTL returns the remaining lifetime at now (negative once expired).
func (t Token) TTL(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}

// StatusAt classifies the token. A token whose remaining lifetime is at or
// below margin is expired; at or below refreshWindow it is expiring.
func (t Token) StatusAt(now time.Time, margin, refreshWindow time.Duration) TokenStatus {
	if t.Value == "" {
		return TokenExpired
	}
	ttl := t.TTL(now)
	switch {
	case ttl <= margin:
		return TokenExpired
	case ttl <= refreshWindow:
		return TokenExpiring
	default:
		return TokenValid
	}
}

// OAuth2 converts the token for use with oauth2.Token.SetAuthHeader. The
// scheme becomes the token type, so "Token" yields "Authorization: Token <value>".
func (t Token) OAuth2(scheme string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   scheme,
		Expiry:      t.ExpiresAt,
	}
}
