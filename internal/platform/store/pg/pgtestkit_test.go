package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTestDB opens a client for the test and closes it on cleanup
func WithTestDB(t *testing.T, dsn string, mut func(*pgxpool.Config), fn func(p *PG)) {
	t.Helper()
	client, err := Open(context.Background(), Config{URL: dsn, AppName: "quickgithub-pg-integration"}, nil, mut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(client.Close)
	fn(client)
}
