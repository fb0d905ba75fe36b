package store

import (
	"context"
	"errors"
	"fmt"

	perr "quickgithub/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRowsAffected means a targeted write matched nothing
var ErrNoRowsAffected = errors.New("store: no rows affected")

// Exec runs a write
func Exec(ctx context.Context, q RowQuerier, sql string, args ...any) (CommandTag, error) {
	return q.Exec(ctx, sql, args...)
}

// ExecOne runs a write and requires at least one affected row
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Scalar scans the first column of the first row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	return v, err
}

// One maps a single row with scan; no row is perr.ErrNotFound
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	item, err := scan(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if IsNoRows(err) {
			return zero, perr.ErrNotFound
		}
		return zero, err
	}
	return item, nil
}

// Many maps every row with scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rs, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []T
	for rs.Next() {
		item, err := scan(rs)
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		out = append(out, item)
	}
	return out, rs.Err()
}

// IsNoRows reports an empty single-row result
func IsNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
