// Package tokenstore provides optional cross-process caches for the NMC
// token, so short-lived server processes spawned by a desktop host can reuse
// a token instead of logging in on every start.
package tokenstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"nmc-mcp/internal/auth"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "nmc-mcp:token:"

// Open selects a store from rawURL. An empty URL or "memory://" gives a
// process-local store; "redis://" and "rediss://" give a Redis store scoped
// to the given account.
func Open(rawURL, baseURL, username string) (auth.TokenStore, error) {
	if rawURL == "" {
		return NewMemory(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid token cache URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemory(), nil
	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return NewRedis(redis.NewClient(opts), AccountKey(baseURL, username), nil), nil
	default:
		return nil, fmt.Errorf("unsupported token cache scheme %q", u.Scheme)
	}
}

// AccountKey derives the cache key for one NMC account. The username is
// hashed so it does not appear in the cache keyspace.
func AccountKey(baseURL, username string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(baseURL, "/") + "|" + username))
	return defaultKeyPrefix + hex.EncodeToString(sum[:8])
}

// Memory keeps nothing beyond what the auth manager already holds. It exists
// so callers always have a store to pass around.
type Memory struct{}

// NewMemory creates a memory store.
func NewMemory() *Memory { return &Memory{} }

func (*Memory) Load(ctx context.Context) (auth.Token, bool, error) { return auth.Token{}, false, nil }
func (*Memory) Save(ctx context.Context, token auth.Token) error  { return nil }
func (*Memory) Clear(ctx context.Context) error                   { return nil }

var (
	_ auth.TokenStore = (*Memory)(nil)
	_ auth.TokenStore = (*Redis)(nil)
)
