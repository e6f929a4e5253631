package cache

import (
	"context"
	"fmt"
	"time"

	"account-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies it answers PING.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}

	return client, nil
}

// Probe reports Redis reachability for the health endpoint.
type Probe struct {
	client redis.UniversalClient
}

func NewProbe(client redis.UniversalClient) *Probe {
	return &Probe{client: client}
}

func (p *Probe) Name() string {
	return "redis"
}

func (p *Probe) Check(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
