package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// New connects to Redis and verifies the connection. target is either a
// host:port address or a redis:// URL carrying credentials and a database
// number. The client is closed again when the ping fails.
func New(ctx context.Context, target string) (*redis.Client, error) {
	opts, err := options(target)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("catalog cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

func options(target string) (*redis.Options, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("catalog cache: empty redis address")
	}
	if strings.Contains(target, "://") {
		opts, err := redis.ParseURL(target)
		if err != nil {
			return nil, fmt.Errorf("catalog cache: parse %q: %w", target, err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: target}, nil
}
