package store

import (
	"context"
	"fmt"
	"time"

	"quickgithub/internal/platform/store/ch"
	"quickgithub/internal/platform/store/pg"
	"quickgithub/internal/platform/store/rds"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
)

// pingWithRetry pings until healthy, ctx ends or attempts run out
// Backends start alongside the api under compose, so the first pings routinely fail
func pingWithRetry(ctx context.Context, s *Store, name string, tries uint, timeout time.Duration, ping func(context.Context) error) error {
	if tries == 0 {
		tries = defaultConnectRetries
	}
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 150 * time.Millisecond
	eb.MaxInterval = 2 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return struct{}{}, ping(pctx)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.Log.Warn().Err(err).Str("backend", name).Dur("retry_in", next).Msg("backend not ready")
		}),
	)
	if err != nil {
		return fmt.Errorf("%s ping failed after %d attempts: %w", name, tries, err)
	}
	return nil
}

// openPG pings the raw pool so boot retries never reach the sql tracer
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	if err := pingWithRetry(ctx, s, "postgres", cfg.PG.ConnectRetries, cfg.PG.PingTimeout, p.Pool.Ping); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

func openRDS(ctx context.Context, cfg Config, s *Store) (redis.UniversalClient, error) {
	c, err := rds.Open(ctx, rds.Config{
		URL:        cfg.RDS.URL,
		PoolSize:   cfg.RDS.PoolSize,
		ClientName: cfg.AppName,
	})
	if err != nil {
		return nil, err
	}

	ping := func(ctx context.Context) error { return c.Ping(ctx).Err() }
	if err := pingWithRetry(ctx, s, "redis", cfg.RDS.ConnectRetries, cfg.RDS.PingTimeout, ping); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// openCH connects without a boot ping; analytics is best effort and readiness reports it
func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := ch.Open(ctx, ch.Config{DSN: cfg.CH.DSN, Role: cfg.AppName})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
