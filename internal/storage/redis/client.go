// Package redis stores encounter event streams in Redis lists.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of go-redis the stores depend on. Both single-node and
// cluster clients satisfy it.
type Client interface {
	redis.UniversalClient
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// NewClient connects to Redis and verifies the connection with PING.
//
// Precondition: opts.Addr must be non-empty.
// Postcondition: Returns a live client or a non-nil error.
func NewClient(ctx context.Context, opts ClientOptions) (Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
