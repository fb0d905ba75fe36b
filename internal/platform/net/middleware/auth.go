package middleware

import (
	"net/http"

	perr "quickgithub/internal/platform/errors"
	pnet "quickgithub/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the user id and tier, or an error when the request carries no valid session
	Parse(r *http.Request) (userID string, tier string, err error)
}

// Auth requires a session; failures are written as 401 "Unauthorized"
// A nil port lets every request through anonymously
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, tier, err := p.Parse(r)
			if err != nil || uid == "" {
				status, body := pnet.Error(perr.Unauthorizedf("Unauthorized"), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithUser(r.Context(), uid, tier)))
		})
	}
}

// OptionalAuth attaches the user when a valid session is present and never rejects
func OptionalAuth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p != nil {
				if uid, tier, err := p.Parse(r); err == nil && uid != "" {
					r = r.WithContext(pnet.WithUser(r.Context(), uid, tier))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
