package queue

import (
	"fmt"
	"time"

	"quickgithub/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Closer is an Enqueuer that owns resources
type Closer interface {
	Enqueuer
	Close() error
}

// FromConfig picks the transport from QUEUE_MODE (asynq by default)
// Reads QUEUE_TIMEOUT and, in http mode, WORKER_API_URL from cfg
func FromConfig(cfg config.Conf, rdb redis.UniversalClient) (Closer, error) {
	mode := cfg.MayEnum("QUEUE_MODE", ModeAsynq, ModeAsynq, ModeHTTP)
	timeout := cfg.MayDuration("QUEUE_TIMEOUT", 10*time.Second)

	switch mode {
	case ModeHTTP:
		return nopCloser{NewHTTP(HTTPOptions{
			BaseURL: cfg.MustString("WORKER_API_URL"),
			Timeout: timeout,
		})}, nil
	case ModeAsynq:
		if rdb == nil {
			return nil, fmt.Errorf("queue: asynq mode needs redis")
		}
		return NewAsynq(rdb, timeout), nil
	}
	return nil, fmt.Errorf("queue: unknown mode %q", mode)
}

type nopCloser struct{ Enqueuer }

func (nopCloser) Close() error { return nil }
