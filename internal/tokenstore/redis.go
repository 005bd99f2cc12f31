package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/clock"
	"nmc-mcp/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// Redis stores the token as JSON under a single key whose TTL matches the
// token's remaining lifetime.
type Redis struct {
	client *redis.Client
	key    string
	clock  clock.Clock
}

// NewRedis creates a Redis-backed store. A nil clock uses system time.
func NewRedis(client *redis.Client, key string, c clock.Clock) *Redis {
	return &Redis{client: client, key: key, clock: clock.OrReal(c)}
}

// Load returns the cached token, if any.
func (r *Redis) Load(ctx context.Context) (auth.Token, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Token{}, false, nil
	}
	if err != nil {
		return auth.Token{}, false, fmt.Errorf("redis get: %w", err)
	}

	var tok auth.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		logging.Warn("TokenStore", "Discarding unreadable cached token: %v", err)
		return auth.Token{}, false, nil
	}
	return tok, true, nil
}

// Save stores token until it expires. Already expired tokens are not stored.
func (r *Redis) Save(ctx context.Context, token auth.Token) error {
	ttl := token.TTL(r.clock.Now())
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	logging.Debug("TokenStore", "Cached token for %v", ttl)
	return nil
}

// Clear removes the cached token.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
