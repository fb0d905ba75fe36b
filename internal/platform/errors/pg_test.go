package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"22P05", ErrorCodeInvalidArgument},
		{"40001", ErrorCodeDB},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v/%v, want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("non-pg error should not map")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %d", 1) != nil {
		t.Fatalf("nil should pass through")
	}
	err := FromPostgresf(fmt.Errorf("exec: %w", pgErr("23505")), "upsert %s", "vercel/next.js")
	if !IsCode(err, ErrorCodeDuplicateKey) || !IsDuplicateKey(err) {
		t.Fatalf("unique violation not mapped: %v", err)
	}
	if !IsCode(FromPostgres(stderrs.New("conn reset"), "x"), ErrorCodeDB) {
		t.Fatalf("foreign error should become DB")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) || IsRetryable(context.Canceled) {
		t.Fatalf("nil and cancel are not retryable")
	}
	if !IsRetryable(Wrap(pgErr("40001"), ErrorCodeDB, "tx")) || !IsSerializationFailure(pgErr("40001")) {
		t.Fatalf("serialization failure should retry")
	}
	if IsRetryable(pgErr("23505")) {
		t.Fatalf("unique violation should not retry")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should retry")
	}
	if !Retryable(pgErr("40P01")) {
		t.Fatalf("Retryable should cover pg")
	}
}
