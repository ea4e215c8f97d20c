package state

import (
	"context"
	"fmt"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"github.com/redis/go-redis/v9"
)

// RedisGuard stores handshake state in Redis so any instance can serve
// the callback. Single-use is enforced by GETDEL: read and removal are
// one command, so concurrent consumers race on the server and exactly
// one receives the value.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client: client,
		prefix: "oauthstate:",
		ttl:    ttl,
	}
}

func (g *RedisGuard) key(stateValue string) string {
	return g.prefix + stateValue
}

func (g *RedisGuard) Issue(ctx context.Context) (*Grant, error) {
	grant, err := newGrant()
	if err != nil {
		return nil, err
	}

	// TTL handles abandonment: if the browser never comes back, the
	// entry simply expires.
	err = g.client.Set(ctx, g.key(grant.State), grant.CodeVerifier, g.ttl).Err()
	if err != nil {
		return nil, fmt.Errorf("state: failed to record state value: %w", err)
	}
	return grant, nil
}

func (g *RedisGuard) Consume(ctx context.Context, stateValue string) (string, error) {
	verifier, err := g.client.GetDel(ctx, g.key(stateValue)).Result()
	if err == redis.Nil {
		return "", auth.ErrInvalidState
	}
	if err != nil {
		return "", fmt.Errorf("state: failed to consume state value: %w", err)
	}
	return verifier, nil
}
