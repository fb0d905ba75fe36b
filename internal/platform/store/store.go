// Package store opens and owns the storage backends: postgres for the durable ledger,
// redis for ephemeral coordination state and an optional clickhouse analytics sink
package store

import (
	"context"
	"errors"
	"fmt"

	"quickgithub/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Store is the backend facade; disabled backends stay nil
type Store struct {
	Log logger.Logger

	// PG is the sql seam
	PG TxRunner

	// RDS is the redis client
	RDS redis.UniversalClient

	// CH is the analytics seam
	CH Clickhouse
}

// Row is a single-row scan
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set cursor
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports a write result
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is what repositories run sql through
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner adds transactions; fn's error rolls back
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar write/read seam
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open connects every enabled backend and verifies each with a retried ping
// A failure closes whatever was already opened
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		pgc, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pgc
	}

	if cfg.RDS.Enabled {
		rc, err := openRDS(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.RDS = rc
	}

	if cfg.CH.Enabled {
		chc, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = chc
	}

	return s, nil
}

// Guard pings every open backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for name, p := range s.Pingers() {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Pingers returns a readiness probe per open backend, keyed by backend name
func (s *Store) Pingers() map[string]Pinger {
	out := map[string]Pinger{}
	if p, ok := s.PG.(Pinger); ok {
		out["postgres"] = p
	}
	if s.RDS != nil {
		out["redis"] = redisPinger{s.RDS}
	}
	if p, ok := s.CH.(Pinger); ok {
		out["clickhouse"] = p
	}
	return out
}

// Close closes every open backend; nil backends are skipped
func (s *Store) Close(_ context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if s.RDS != nil {
		errs = append(errs, s.RDS.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type redisPinger struct{ c redis.UniversalClient }

func (r redisPinger) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
