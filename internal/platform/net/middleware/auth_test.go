package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pnet "quickgithub/internal/platform/net"
	"quickgithub/internal/platform/net/middleware"
)

type fakeAuthPort struct {
	user string
	tier string
	err  error
}

func (f fakeAuthPort) Parse(*http.Request) (string, string, error) {
	return f.user, f.tier, f.err
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAuth_NilPortPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	middleware.Auth(nil, writeJSON)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("called=%v code=%d", called, rr.Code)
	}
}

func TestAuth_RejectsWith401(t *testing.T) {
	for _, p := range []fakeAuthPort{{err: http.ErrNoCookie}, {user: ""}} {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

		rr := httptest.NewRecorder()
		middleware.Auth(p, writeJSON)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

		if called {
			t.Fatal("next ran without a session")
		}
		var w pnet.Wire
		_ = json.Unmarshal(rr.Body.Bytes(), &w)
		if rr.Code != http.StatusUnauthorized || w.Error != "Unauthorized" {
			t.Fatalf("got %d %+v", rr.Code, w)
		}
	}
}

func TestAuth_SetsUserAndTier(t *testing.T) {
	var uid, tier string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, tier = pnet.UserID(r.Context()), pnet.Tier(r.Context())
	})

	rr := httptest.NewRecorder()
	middleware.Auth(fakeAuthPort{user: "u1", tier: "PRO"}, writeJSON)(next).
		ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if uid != "u1" || tier != "PRO" {
		t.Fatalf("context = %q %q", uid, tier)
	}
}

func TestOptionalAuth(t *testing.T) {
	var uid string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uid = pnet.UserID(r.Context()) })

	middleware.OptionalAuth(fakeAuthPort{err: http.ErrNoCookie})(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if uid != "" {
		t.Fatalf("anonymous request got user %q", uid)
	}

	middleware.OptionalAuth(fakeAuthPort{user: "u2"})(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if uid != "u2" {
		t.Fatalf("user = %q", uid)
	}
}
