package errors

import (
	"context"
	stderrs "errors"
	"net"

	"github.com/redis/go-redis/v9"
)

// IsRedisNil reports a missing key
func IsRedisNil(err error) bool { return stderrs.Is(err, redis.Nil) }

// IsRedisTransient reports network-level redis failures worth one more try
func IsRedisTransient(err error) bool {
	if err == nil || IsRedisNil(err) {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if stderrs.Is(err, redis.ErrClosed) {
		return false
	}
	var ne net.Error
	return stderrs.As(err, &ne)
}

// FromRedis wraps a redis failure as Unavailable; a missing key becomes NotFound
func FromRedis(err error, msg string) error {
	if err == nil {
		return nil
	}
	if IsRedisNil(err) {
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	return Wrap(err, ErrorCodeUnavailable, msg)
}
