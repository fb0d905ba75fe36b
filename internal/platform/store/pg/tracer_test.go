package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	pnet "quickgithub/internal/platform/net"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"select 1":                           "select 1",
		"  SELECT\t*\nFROM \"Repo\"\r\n  ":   `SELECT * FROM "Repo"`,
		"":                                   "",
		"UPDATE  \"Repo\"\n SET status = $1": `UPDATE "Repo" SET status = $1`,
	}
	for in, want := range cases {
		if got := compact(in); got != want {
			t.Fatalf("compact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTracerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	type line struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		SQL       string  `json:"sql"`
		Error     string  `json:"error"`
		Component string  `json:"component"`
		RequestID string  `json:"request_id"`
	}
	decode := func() line {
		t.Helper()
		var l line
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l); err != nil {
			t.Fatalf("decode: %v raw=%s", err, buf.String())
		}
		buf.Reset()
		return l
	}

	ctx := pnet.WithRequest(context.Background(), "req-7")
	ev := QueryEvent{SQL: "SELECT\n 1", ElapsedUS: 2500, Err: errors.New("boom")}

	tr.OnQuery(ctx, ev)
	got := decode()
	if got.Level != "info" || got.SQL != "SELECT 1" || got.ElapsedMS != 2.5 {
		t.Fatalf("info line mismatch: %+v", got)
	}
	if got.Error != "boom" || got.Component != "pg" || got.RequestID != "req-7" {
		t.Fatalf("fields mismatch: %+v", got)
	}

	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	if got := decode(); got.Level != "warn" || got.RequestID != "" {
		t.Fatalf("slow line mismatch: %+v", got)
	}
}
