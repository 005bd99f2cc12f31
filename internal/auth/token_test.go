package auth

import (
	"net/http"
	"testing"
	"time"
)

func TestTokenStatusAt(t *testing.T) {
	now := time.Date(2025, 8, 9, 8, 0, 0, 0, time.UTC)
	margin := time.Minute
	window := 10 * time.Minute

	tests := []struct {
		name     string
		token    Token
		expected TokenStatus
	}{
		{"empty value", Token{ExpiresAt: now.Add(time.Hour)}, TokenExpired},
		{"fresh", Token{Value: "t", ExpiresAt: now.Add(time.Hour)}, TokenValid},
		{"just outside refresh window", Token{Value: "t", ExpiresAt: now.Add(10*time.Minute + time.Second)}, TokenValid},
		{"at refresh window", Token{Value: "t", ExpiresAt: now.Add(10 * time.Minute)}, TokenExpiring},
		{"five minutes left", Token{Value: "t", ExpiresAt: now.Add(5 * time.Minute)}, TokenExpiring},
		{"at margin", Token{Value: "t", ExpiresAt: now.Add(time.Minute)}, TokenExpired},
		{"past expiry", Token{Value: "t", ExpiresAt: now.Add(-time.Second)}, TokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.StatusAt(now, margin, window); got != tt.expected {
				t.Errorf("StatusAt() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestTokenOAuth2SetsSchemeHeader(t *testing.T) {
	tok := Token{Value: "abc123", ExpiresAt: time.Now().Add(time.Hour)}

	req, _ := http.NewRequest(http.MethodGet, "https://nmc.example.com/api/v1.2/filers/", nil)
	tok.OAuth2("Token").SetAuthHeader(req)
	if got := req.Header.Get("Authorization"); got != "Token abc123" {
		t.Errorf("Authorization = %q, want %q", got, "Token abc123")
	}

	req.Header.Del("Authorization")
	tok.OAuth2("bearer").SetAuthHeader(req)
	if got := req.Header.Get("Authorization"); got != "Bearer abc123" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc123")
	}
}
