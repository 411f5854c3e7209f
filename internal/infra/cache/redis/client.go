package redis

import (
	"context"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
