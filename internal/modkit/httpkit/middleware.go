package httpkit

import (
	"net/http"
	"strings"
	"time"

	phttp "quickgithub/internal/platform/net/http"
	"quickgithub/internal/platform/net/middleware"
)

// CommonStack is the root stack; every route including event streams sits behind it
func CommonStack(cors middleware.CORSOptions) []func(http.Handler) http.Handler {
	return append(middleware.Defaults(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: 500 * time.Millisecond,
			Skip: func(r *http.Request) bool {
				return strings.HasPrefix(r.URL.Path, "/api/meta/") || r.URL.Path == "/metrics"
			},
		}),
		middleware.CORS(cors),
	)
}

// JSONStack is for request/response routes: compression and a hard deadline
// Streams must not use it
func JSONStack(timeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Compress(),
		middleware.Timeout(timeout),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// OptionalAuth attaches the user when present
func OptionalAuth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.OptionalAuth(p)
}

// RateLimit applies the per-IP limiter with the platform JSON writer
func RateLimit(l middleware.Limiter) func(http.Handler) http.Handler {
	return middleware.RateLimitIP(l, phttp.JSON)
}
