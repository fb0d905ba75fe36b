package errors

import (
	"context"
	stderrs "errors"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestFromRedis(t *testing.T) {
	if FromRedis(nil, "x") != nil {
		t.Fatalf("nil should pass through")
	}
	if !IsCode(FromRedis(redis.Nil, "get status"), ErrorCodeNotFound) {
		t.Fatalf("redis.Nil should map to NotFound")
	}
	if !IsCode(FromRedis(stderrs.New("READONLY"), "set"), ErrorCodeUnavailable) {
		t.Fatalf("other redis errors should map to Unavailable")
	}
}

func TestIsRedisTransient(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: stderrs.New("connection refused")}
	if !IsRedisTransient(opErr) || !Retryable(opErr) {
		t.Fatalf("net errors are transient")
	}
	for _, err := range []error{nil, redis.Nil, context.Canceled, redis.ErrClosed, stderrs.New("WRONGTYPE")} {
		if IsRedisTransient(err) {
			t.Fatalf("%v should not be transient", err)
		}
	}
}
