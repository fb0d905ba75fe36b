package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickgithub/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, int, error) { return false, 0, nil }

type portFunc func(*http.Request) (string, string, error)

func (f portFunc) Parse(r *http.Request) (string, string, error) { return f(r) }

func TestStacksAndProtected(t *testing.T) {
	m := chi.NewRouter()
	m.Use(CommonStack(middleware.CORSOptions{AllowedOrigins: []string{"*"}})...)
	r := adapt(m)

	MountAPI(r, "", nil, func(api Router) {
		api.Group(func(g Router) {
			g.Use(JSONStack(time.Second)...)
			Get(g, "/open", func(*http.Request) (any, error) { return "open", nil })
			Protected(g, portFunc(func(*http.Request) (string, string, error) { return "", "", http.ErrNoCookie }), func(p Router) {
				Post(p, "/closed", func(*http.Request) (any, error) { return "closed", nil })
			})
		})
		api.With(RateLimit(denyAll{})).Get("/limited", func(w http.ResponseWriter, _ *http.Request) {})
		api.With(OptionalAuth(nil)).Get("/maybe", func(w http.ResponseWriter, _ *http.Request) {})
	})

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/open", http.StatusOK},
		{http.MethodPost, "/api/closed", http.StatusUnauthorized},
		{http.MethodGet, "/api/limited", http.StatusTooManyRequests},
		{http.MethodGet, "/api/maybe", http.StatusOK},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.RemoteAddr = "9.9.9.9:1000"
		m.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s = %d body=%s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
	}
}

func TestMountAPIVersion(t *testing.T) {
	m := chi.NewRouter()
	MountAPI(adapt(m), "/v2/", nil, func(api Router) {
		Get(api, "/x", func(*http.Request) (any, error) { return 1, nil })
	})
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("versioned mount = %d", rec.Code)
	}
}
