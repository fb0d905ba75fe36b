package repo

import (
	"context"
	_ "embed"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/store"
)

// Schema is the ledger layout the queries expect
//
//go:embed schema.sql
var Schema string

// EventsSchema creates the analytics table
const EventsSchema = `CREATE TABLE IF NOT EXISTS ` + EventsTable + ` (
    at        DateTime64(3, 'UTC'),
    kind      LowCardinality(String),
    full_name String,
    user_id   String,
    outcome   LowCardinality(String),
    status    LowCardinality(String)
) ENGINE = MergeTree
ORDER BY (kind, at)
TTL toDateTime(at) + INTERVAL 90 DAY`

// Migrate applies Schema; every statement is idempotent
func Migrate(ctx context.Context, db store.RowQuerier) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return perr.FromPostgres(err, "apply ledger schema")
	}
	return nil
}

// EnsureEventsTable creates the analytics table when clickhouse is enabled
func EnsureEventsTable(ctx context.Context, ch store.Clickhouse) error {
	if ch == nil {
		return nil
	}
	if err := ch.Exec(ctx, EventsSchema); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "create "+EventsTable)
	}
	return nil
}
