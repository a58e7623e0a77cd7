package authstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pending-auth:"

// Redis is a Registry backed by a shared Redis instance, for
// deployments running more than one process behind a load balancer.
// Expiry is native to the store and the single-use take maps onto
// GETDEL, which is atomic server-side.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ Registry = (*Redis)(nil)

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Put(ctx context.Context, state, codeVerifier string) error {
	if state == "" {
		return errors.New("authstate: state cannot be empty")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state, codeVerifier, r.ttl).Err(); err != nil {
		return fmt.Errorf("authstate: storing pending login: %w", err)
	}
	return nil
}

func (r *Redis) TakeAndRemove(ctx context.Context, state string) (string, error) {
	v, err := r.client.GetDel(ctx, redisKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("authstate: consuming pending login: %w", err)
	}
	return v, nil
}
