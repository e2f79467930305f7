package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCooldownKey = "dispatcher:cooldown"

// CooldownGate stores the dispatcher quiet window in Redis so it is shared
// across service instances and survives restarts. The window is just a key
// with a TTL; while it exists, the dispatcher stays quiet.
type CooldownGate struct {
	client *redis.Client
	key    string
}

func NewCooldownGate(client *redis.Client) *CooldownGate {
	return &CooldownGate{
		client: client,
		key:    defaultCooldownKey,
	}
}

func (g *CooldownGate) Start(ctx context.Context, window time.Duration) error {
	return g.client.Set(ctx, g.key, "1", window).Err()
}

func (g *CooldownGate) Active(ctx context.Context) (bool, error) {
	n, err := g.client.Exists(ctx, g.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
