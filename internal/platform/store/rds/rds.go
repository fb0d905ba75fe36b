// Package rds opens the redis client backing snapshots, locks, docs cache and rate limits
package rds

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the client
// URL uses redis:// or rediss:// form, e.g. redis://:pass@host:6379/0
type Config struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ClientName   string
}

var newClient = redis.NewClient

// Open parses cfg and builds a client; go-redis dials lazily so no round trip happens here
func Open(_ context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.ClientName != "" {
		opts.ClientName = cfg.ClientName
	}
	return newClient(opts), nil
}
