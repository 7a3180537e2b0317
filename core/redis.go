package core

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "session:revoked:"

// TokenDenylist records session token ids revoked before their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// RedisTokenDenylist keeps one key per revoked token, expiring with the token.
type RedisTokenDenylist struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisTokenDenylist(client redis.Cmdable) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client, now: time.Now}
}

// Revoke denylists tokenID until the given expiry. Already-expired tokens are skipped.
func (d *RedisTokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+tokenID, "1", ttl).Err()
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
