package middleware

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	pnet "quickgithub/internal/platform/net"

	"github.com/redis/go-redis/v9"
)

// Limiter admits or rejects one hit against key
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

// SlidingWindow is a redis sorted-set window: every hit is a member scored by its time
// Keys are ratelimit:{key} and expire with the window
type SlidingWindow struct {
	RDS    redis.Cmdable
	Max    int
	Window time.Duration

	now func() time.Time
}

// NewSlidingWindow returns a limiter allowing limit hits per window
func NewSlidingWindow(rds redis.Cmdable, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{RDS: rds, Max: limit, Window: window, now: time.Now}
}

// Allow records the hit and reports whether the window still has room
func (s *SlidingWindow) Allow(ctx context.Context, key string) (bool, int, error) {
	now := s.now()
	full := "ratelimit:" + key
	start := now.Add(-s.Window).UnixMilli()

	var card *redis.IntCmd
	_, err := s.RDS.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, full, "-inf", strconv.FormatInt(start, 10))
		p.ZAdd(ctx, full, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: fmt.Sprintf("%d:%d", now.UnixNano(), rand.Uint64()),
		})
		card = p.ZCard(ctx, full)
		p.PExpire(ctx, full, s.Window)
		return nil
	})
	if err != nil {
		return true, s.Max, perr.FromRedis(err, "rate limit window")
	}
	count := int(card.Val())
	return count <= s.Max, max(0, s.Max-count), nil
}

// RateLimitIP rejects callers over the limit with 429
// Limiter failures let the request through
func RateLimitIP(l Limiter, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pnet.ClientIP(r.Context())
			if l == nil || ip == "" {
				next.ServeHTTP(w, r)
				return
			}
			ok, remaining, err := l.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				logger.C(r.Context()).Warn().Err(err).Msg("rate limiter unavailable; allowing")
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				status, body := pnet.Error(perr.TooManyRequestsf("Too many requests"), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
