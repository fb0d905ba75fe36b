package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickgithub/internal/platform/store"
	"quickgithub/internal/platform/testkit"
	"quickgithub/internal/services/api/indexing/domain"
)

type fakeCH struct {
	table   string
	rows    [][]any
	execs   []string
	ctxErr  error
	failing error
}

func (f *fakeCH) Insert(ctx context.Context, table string, rows [][]any) error {
	f.ctxErr = ctx.Err()
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.failing
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.failing
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeCH) Close() error { return nil }

func TestNewEventsWithoutClickhouseIsNop(t *testing.T) {
	t.Parallel()
	if _, ok := NewEvents(nil).(NopEvents); !ok {
		t.Fatalf("want NopEvents")
	}
	testkit.MustNotPanic(t, func() { NopEvents{}.Record(context.Background(), domain.AuditEvent{}) })
}

func TestCHEventsRecord(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{}
	ev := NewEvents(ch)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	ev.Record(context.Background(), domain.AuditEvent{
		At: at, Kind: "submit", FullName: "acme/widgets", UserID: "u1", Outcome: "accepted", Status: domain.StatusPending,
	})

	if ch.table != EventsTable || len(ch.rows) != 1 {
		t.Fatalf("insert %q %v", ch.table, ch.rows)
	}
	row := ch.rows[0]
	if row[0] != at || row[1] != "submit" || row[2] != "acme/widgets" || row[4] != "accepted" || row[5] != "PENDING" {
		t.Fatalf("row %v", row)
	}
}

func TestCHEventsOutliveCancellation(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{failing: errors.New("ch down")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	testkit.MustNotPanic(t, func() {
		NewEvents(ch).Record(ctx, domain.AuditEvent{Kind: "stream", FullName: "acme/widgets"})
	})
	if ch.ctxErr != nil {
		t.Fatalf("insert saw a cancelled context: %v", ch.ctxErr)
	}
	if ts, ok := ch.rows[0][0].(time.Time); !ok || ts.IsZero() {
		t.Fatalf("timestamp not defaulted: %v", ch.rows[0][0])
	}
}

func TestEnsureEventsTable(t *testing.T) {
	t.Parallel()
	if err := EnsureEventsTable(context.Background(), nil); err != nil {
		t.Fatalf("nil clickhouse: %v", err)
	}

	ch := &fakeCH{}
	if err := EnsureEventsTable(context.Background(), ch); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(ch.execs) != 1 {
		t.Fatalf("execs %v", ch.execs)
	}
	testkit.MustContain(t, ch.execs[0], "CREATE TABLE IF NOT EXISTS indexing_events")

	ch.failing = errors.New("boom")
	if err := EnsureEventsTable(context.Background(), ch); err == nil {
		t.Fatalf("error swallowed")
	}
}

func TestKeyContract(t *testing.T) {
	t.Parallel()
	k := domain.RepoKey{Owner: "vercel", Repo: "next.js"}
	cases := map[string]string{
		StatusKey(k):       "indexing:vercel/next.js:status",
		IndexingLockKey(k): "indexing:vercel/next.js:lock",
		WorkerLockKey(k):   "lock:indexing:vercel/next.js",
		DocsKey(k):         "docs:vercel/next.js:latest",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("key %q want %q", got, want)
		}
	}
}

func TestSchemaEmbedded(t *testing.T) {
	t.Parallel()
	testkit.MustContain(t, Schema, `CREATE TABLE IF NOT EXISTS "Repo"`)
	testkit.MustContain(t, Schema, `CREATE TABLE IF NOT EXISTS "Documentation"`)
}
