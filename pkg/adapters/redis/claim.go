package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// ErrClaimed is returned when another engine already presents questions for the bomb.
var ErrClaimed = errors.New("bomb is already claimed by another presenter")

// ReleaseFunc gives a claim back.
type ReleaseFunc func(ctx context.Context) error

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Claim marks owner as the only presenter of the bomb for ttl, using SET NX PX.
// The returned release only deletes the claim while owner still holds it.
func (b *Bomb) Claim(ctx context.Context, owner string, ttl time.Duration) (ReleaseFunc, error) {
	key := b.key("presenter")
	ok, err := b.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error claiming bomb: %w", err)
	}
	if !ok {
		holder, _ := b.client.Get(ctx, key).Result()
		return nil, fmt.Errorf("%w: %s", ErrClaimed, holder)
	}
	return func(ctx context.Context) error {
		return b.client.Eval(ctx, releaseScript, []string{key}, owner).Err()
	}, nil
}

// Renew extends a claim held by owner. It returns ErrClaimed if the claim
// expired or passed to someone else.
func (b *Bomb) Renew(ctx context.Context, owner string, ttl time.Duration) error {
	key := b.key("presenter")
	holder, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, backend.Nil) || err == nil && holder != owner {
		return ErrClaimed
	}
	if err != nil {
		return fmt.Errorf("redis error renewing claim: %w", err)
	}
	return b.client.PExpire(ctx, key, ttl).Err()
}
