package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickgithub/internal/modkit/httpkit"
	perr "quickgithub/internal/platform/errors"
	phttp "quickgithub/internal/platform/net/http"
	"quickgithub/internal/platform/testkit"
	"quickgithub/internal/services/api/indexing/domain"

	"github.com/go-chi/chi/v5"
)

type fakeSvc struct {
	submitIn  domain.SubmitInput
	submitErr error
	frames    []domain.Event
	docsErr   error
	checkKey  domain.RepoKey
	resetBy   domain.Requester
	resetIn   domain.ResetLimitInput
	calls     int
}

func (f *fakeSvc) Submit(_ context.Context, in domain.SubmitInput) (domain.SubmitOutput, error) {
	f.calls++
	f.submitIn = in
	if f.submitErr != nil {
		return domain.SubmitOutput{}, f.submitErr
	}
	return domain.SubmitOutput{RepoID: "r1", StatusURL: in.Key.StatusURL()}, nil
}

func (f *fakeSvc) Subscribe(_ context.Context, _ domain.RepoKey, emit func(domain.Event) error) error {
	f.calls++
	for _, ev := range f.frames {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSvc) Docs(_ context.Context, k domain.RepoKey) (domain.Docs, error) {
	f.calls++
	if f.docsErr != nil {
		return domain.Docs{}, f.docsErr
	}
	return domain.Docs{ID: "r1", FullName: k.FullName(), Status: domain.StatusCompleted}, nil
}

func (f *fakeSvc) Check(_ context.Context, k domain.RepoKey) (domain.CheckOutput, error) {
	f.calls++
	f.checkKey = k
	return domain.CheckOutput{Exists: true}, nil
}

func (f *fakeSvc) ResetLimit(_ context.Context, by domain.Requester, in domain.ResetLimitInput) (domain.ResetLimitOutput, error) {
	f.calls++
	f.resetBy, f.resetIn = by, in
	return domain.ResetLimitOutput{OK: true, Message: "Repo limit reset to 0"}, nil
}

// tokens look like "uid:TIER"
var testAuth = httpkit.NewPortFunc(func(tok string) (string, string, error) {
	uid, tier, ok := strings.Cut(tok, ":")
	if !ok {
		return "", "", perr.Unauthorizedf("bad token")
	}
	return uid, tier, nil
})

func newRouter(s *fakeSvc) stdhttp.Handler {
	m := chi.NewRouter()
	Register(phttp.AdaptChi(m), s, Options{
		Auth:    testAuth,
		IsAdmin: func(id string) bool { return id == "root" },
	})
	return m
}

func do(t *testing.T, h stdhttp.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *stdhttp.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestSubmit_Accepted(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodPost, "/repos/vercel/next.js", "u1:pro", "")

	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	data := envelope(t, rec)["data"].(map[string]any)
	if data["statusUrl"] != "/api/repos/vercel/next.js/status" || data["repoId"] != "r1" {
		t.Fatalf("data %v", data)
	}
	want := domain.Requester{UserID: "u1", Tier: domain.TierPro}
	if s.submitIn.Requester != want {
		t.Fatalf("requester %+v", s.submitIn.Requester)
	}
}

func TestSubmit_AdminFlag(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	do(t, newRouter(s), stdhttp.MethodPost, "/repos/acme/widgets", "root:FREE", "")
	if !s.submitIn.Requester.Admin {
		t.Fatalf("admin not propagated")
	}
}

func TestSubmit_RequiresSession(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodPost, "/repos/acme/widgets", "", "")
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
	if s.calls != 0 {
		t.Fatalf("service reached without session")
	}
}

func TestSubmit_MalformedPath(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodPost, "/repos/../widgets", "u1:FREE", "")
	if rec.Code != stdhttp.StatusBadRequest && rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}

	rec = do(t, newRouter(s), stdhttp.MethodPost, "/repos/-acme/widgets", "u1:FREE", "")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	testkit.MustContain(t, rec.Body.String(), "Invalid repository format. Use owner/repo")
	if s.calls != 0 {
		t.Fatalf("service reached with malformed path")
	}
}

func TestSubmit_ConflictCarriesStatusURL(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{submitErr: perr.WithData(perr.Conflictf("Indexing already in progress"),
		domain.ConflictData{RepoID: "r9", StatusURL: "/api/repos/acme/widgets/status"})}
	rec := do(t, newRouter(s), stdhttp.MethodPost, "/repos/acme/widgets", "u1:FREE", "")

	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status %d", rec.Code)
	}
	env := envelope(t, rec)
	if env["error"] != "Indexing already in progress" {
		t.Fatalf("error %v", env["error"])
	}
	data := env["data"].(map[string]any)
	if data["statusUrl"] != "/api/repos/acme/widgets/status" || data["repoId"] != "r9" {
		t.Fatalf("data %v", data)
	}
}

func TestStatus_StreamsFrames(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{frames: []domain.Event{
		{Status: domain.StatusPending, Message: "Queued"},
		{Status: domain.StatusCompleted, Progress: 100, Message: "Done"},
	}}
	rec := do(t, newRouter(s), stdhttp.MethodGet, "/repos/acme/widgets/status", "", "")

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("cache control %q", cc)
	}
	want := `data: {"status":"PENDING","progress":0,"message":"Queued"}` + "\n\n" +
		`data: {"status":"COMPLETED","progress":100,"message":"Done"}` + "\n\n"
	if rec.Body.String() != want {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestStatus_MalformedPathIsJSON(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodGet, "/repos/acme/wid%20gets/status", "", "")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if envelope(t, rec)["error"] != "Invalid repository format" {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodGet, "/repos/acme/widgets", "", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	data := envelope(t, rec)["data"].(map[string]any)
	if data["fullName"] != "acme/widgets" || data["status"] != "COMPLETED" {
		t.Fatalf("data %v", data)
	}

	s.docsErr = perr.NotFoundf("Documentation not found")
	rec = do(t, newRouter(s), stdhttp.MethodGet, "/repos/acme/widgets", "", "")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	s := &fakeSvc{}
	rec := do(t, newRouter(s), stdhttp.MethodGet, "/github/check?owner=vercel&repo=next.js", "", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if s.checkKey != (domain.RepoKey{Owner: "vercel", Repo: "next.js"}) {
		t.Fatalf("key %+v", s.checkKey)
	}

	rec = do(t, newRouter(s), stdhttp.MethodGet, "/github/check?owner=vercel", "", "")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if envelope(t, rec)["error"] != "Invalid owner/repo format" {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestResetLimit(t *testing.T) {
	t.Parallel()

	t.Run("with body", func(t *testing.T) {
		t.Parallel()
		s := &fakeSvc{}
		rec := do(t, newRouter(s), stdhttp.MethodPost, "/admin/reset-limit", "root:FREE", `{"userId":"u7"}`)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
		}
		if s.resetIn.UserID != "u7" || !s.resetBy.Admin {
			t.Fatalf("forwarded %+v %+v", s.resetBy, s.resetIn)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		s := &fakeSvc{}
		rec := do(t, newRouter(s), stdhttp.MethodPost, "/admin/reset-limit", "u1:FREE", "")
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if s.resetIn.UserID != "" || s.resetBy.UserID != "u1" || s.resetBy.Admin {
			t.Fatalf("forwarded %+v %+v", s.resetBy, s.resetIn)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		s := &fakeSvc{}
		rec := do(t, newRouter(s), stdhttp.MethodPost, "/admin/reset-limit", "root:FREE", `{"who":"u7"}`)
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("status %d", rec.Code)
		}
	})
}

func TestRegisterValidatorsIsIdempotent(t *testing.T) {
	t.Parallel()
	testkit.MustNotPanic(t, func() {
		RegisterValidators()
		RegisterValidators()
	})
}
