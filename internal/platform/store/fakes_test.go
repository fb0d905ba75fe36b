package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scanRow returns vals into dest positionally, or err
type scanRow struct {
	vals []any
	err  error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.vals) {
			break
		}
		switch p := dest[i].(type) {
		case *int:
			*p = r.vals[i].(int)
		case *string:
			*p = r.vals[i].(string)
		case *bool:
			*p = r.vals[i].(bool)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

// sliceRows iterates over fixed rows
type sliceRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *sliceRows) Next() bool { r.idx++; return r.idx <= len(r.data) }
func (r *sliceRows) Scan(dest ...any) error {
	return scanRow{vals: r.data[r.idx-1]}.Scan(dest...)
}
func (r *sliceRows) Err() error        { return r.err }
func (r *sliceRows) Close()            { r.closed = true }
func (r *sliceRows) Columns() []string { return nil }

// fakeQuerier implements RowQuerier
type fakeQuerier struct {
	tag     pgconn.CommandTag
	execErr error
	row     scanRow
	rows    *sliceRows
	lastSQL string
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.lastSQL = sql
	return f.tag, f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (Rows, error) {
	f.lastSQL = sql
	if f.rows == nil {
		return nil, errors.New("no rows configured")
	}
	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) Row {
	f.lastSQL = sql
	return f.row
}

// pgxFake implements pgxQuerier for adapter tests
type pgxFake struct {
	tag    pgconn.CommandTag
	err    error
	rowErr error
}

func (p *pgxFake) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return p.tag, p.err
}

func (p *pgxFake) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, p.err
}

func (p *pgxFake) QueryRow(context.Context, string, ...any) pgx.Row {
	return scanRow{vals: []any{1}, err: p.rowErr}
}
