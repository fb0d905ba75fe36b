// Package http provides http transport for indexing
package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"sync"
	"time"

	"quickgithub/internal/modkit/httpkit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/net/http/bind"
	"quickgithub/internal/platform/net/middleware"
	"quickgithub/internal/services/api/indexing/domain"
	svc "quickgithub/internal/services/api/indexing/service"
)

const (
	msgSubmitFormat = "Invalid repository format. Use owner/repo (e.g. vercel/next.js)"
	msgStatusFormat = "Invalid repository format"
	msgCheckFormat  = "Invalid owner/repo format"
)

// Options carries the transport collaborators
type Options struct {
	// Auth resolves bearer sessions; nil lets requests through anonymously
	Auth middleware.AuthPort
	// IsAdmin reports whether a user id may bypass quota and reset limits
	IsAdmin func(userID string) bool
	// Timeout bounds request/response routes; the status stream is exempt
	Timeout time.Duration
}

var slugOnce sync.Once

// RegisterValidators adds the slug tag used by the path and query DTOs
func RegisterValidators() {
	slugOnce.Do(func() {
		err := bind.RegisterValidation("slug", "must be a valid GitHub owner or repository name",
			func(fl bind.FieldLevel) bool { return domain.ValidSlug(fl.Field().String()) })
		if err != nil {
			panic("indexing: register slug validator: " + err.Error())
		}
	})
}

// Register mounts the router
func Register(r httpkit.Router, s svc.Service, opt Options) {
	RegisterValidators()
	if opt.IsAdmin == nil {
		opt.IsAdmin = func(string) bool { return false }
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	h := &handlers{svc: s, isAdmin: opt.IsAdmin}

	// the stream owns its writer; no compression, no deadline
	r.Get("/repos/{owner}/{repo}/status", h.status)

	r.Group(func(jr httpkit.Router) {
		jr.Use(httpkit.JSONStack(opt.Timeout)...)
		jr.Get("/repos/{owner}/{repo}", httpkit.Call(h.docs))
		jr.Get("/github/check", httpkit.Call(h.check))

		httpkit.Protected(jr, opt.Auth, func(pr httpkit.Router) {
			pr.Post("/repos/{owner}/{repo}", httpkit.Handle(h.submit))
			pr.Post("/admin/reset-limit", httpkit.Call(h.resetLimit))
		})
	})
}

type handlers struct {
	svc     svc.Service
	isAdmin func(string) bool
}

// pathKey validates the {owner}/{repo} path values; msg is the route's public message
func pathKey(r *stdhttp.Request, msg string) (domain.RepoKey, error) {
	p := domain.RepoPath{Owner: httpkit.Param(r, "owner"), Repo: httpkit.Param(r, "repo")}
	if err := bind.Struct(p); err != nil {
		field := ""
		if e, ok := perr.As(err); ok {
			field = e.Field()
		}
		return domain.RepoKey{}, perr.WithField(perr.Validationf("%s", msg), field)
	}
	return p.Key(), nil
}

func (h *handlers) requester(r *stdhttp.Request) (domain.Requester, error) {
	id, tier, err := httpkit.User(r)
	if err != nil {
		return domain.Requester{}, err
	}
	return domain.Requester{UserID: id, Tier: domain.ParseTier(tier), Admin: h.isAdmin(id)}, nil
}

// swagger:route POST /repos/{owner}/{repo} Indexing submit
// @Summary Queue an indexing run
// @Description Admits a new run unless one is live; the response points at the status stream.
// @Tags indexing
// @Produce json
// @Security BearerAuth
// @Param owner path string true "Repository owner" example(vercel)
// @Param repo path string true "Repository name" example(next.js)
// @Success 202 {object} domain.SubmitOutput "queued"
// @Failure 400 {object} httpkit.Envelope "malformed owner/repo"
// @Failure 401 {object} httpkit.Envelope "no session"
// @Failure 403 {object} httpkit.Envelope "repository quota reached"
// @Failure 404 {object} httpkit.Envelope "user or upstream repository missing"
// @Failure 409 {object} httpkit.Envelope{data=domain.ConflictData} "a run is in progress"
// @Failure 502 {object} httpkit.Envelope "upstream could not be reached"
// @Failure 503 {object} httpkit.Envelope "worker queue unavailable"
// @Router /repos/{owner}/{repo} [post]
func (h *handlers) submit(r *stdhttp.Request) httpkit.Response {
	k, err := pathKey(r, msgSubmitFormat)
	if err != nil {
		return httpkit.Error(err)
	}
	by, err := h.requester(r)
	if err != nil {
		return httpkit.Error(err)
	}
	out, err := h.svc.Submit(r.Context(), domain.SubmitInput{Key: k, Requester: by})
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Accepted(out)
}

// swagger:route GET /repos/{owner}/{repo}/status Indexing status
// @Summary Stream indexing status
// @Description Server-sent events, one `data: {json}` frame per poll. The stream ends on COMPLETED, FAILED, STALLED, NOT_FOUND or TIMEOUT.
// @Tags indexing
// @Produce text/event-stream
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 200 {object} domain.Event "event frames"
// @Failure 400 {object} httpkit.Envelope "malformed owner/repo"
// @Router /repos/{owner}/{repo}/status [get]
func (h *handlers) status(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	k, err := pathKey(r, msgStatusFormat)
	if err != nil {
		httpkit.RespondError(w, r, err)
		return
	}

	log := logger.Repo(logger.C(r.Context()), k.FullName())
	st, err := httpkit.NewStream(w)
	if err != nil {
		log.Error().Err(err).Msg("cannot start event stream")
		return
	}

	err = h.svc.Subscribe(r.Context(), k, func(ev domain.Event) error { return st.Send(ev) })
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Msg("status stream closed early")
	}
}

// swagger:route GET /repos/{owner}/{repo} Indexing docs
// @Summary Generated documentation
// @Tags indexing
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 200 {object} domain.Docs "ok"
// @Failure 400 {object} httpkit.Envelope "malformed owner/repo"
// @Failure 404 {object} httpkit.Envelope "no documentation"
// @Router /repos/{owner}/{repo} [get]
func (h *handlers) docs(r *stdhttp.Request) (any, error) {
	k, err := pathKey(r, msgSubmitFormat)
	if err != nil {
		return nil, err
	}
	return h.svc.Docs(r.Context(), k)
}

// swagger:route GET /github/check Indexing check
// @Summary Check a repository exists on GitHub
// @Tags indexing
// @Produce json
// @Param owner query string true "Repository owner"
// @Param repo query string true "Repository name"
// @Success 200 {object} domain.CheckOutput "exists"
// @Failure 400 {object} httpkit.Envelope "malformed owner/repo"
// @Failure 404 {object} httpkit.Envelope "not on GitHub"
// @Failure 502 {object} httpkit.Envelope "upstream could not be reached"
// @Router /github/check [get]
func (h *handlers) check(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	in := domain.CheckQuery{Owner: q.Get("owner"), Repo: q.Get("repo")}
	if err := bind.Struct(in); err != nil {
		return nil, perr.Validationf(msgCheckFormat)
	}
	return h.svc.Check(r.Context(), domain.RepoKey{Owner: in.Owner, Repo: in.Repo})
}

// swagger:route POST /admin/reset-limit Indexing resetLimit
// @Summary Reset a user's repository count
// @Description Admin only. An empty body resets the caller.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.ResetLimitInput false "Target user"
// @Success 200 {object} domain.ResetLimitOutput "ok"
// @Failure 401 {object} httpkit.Envelope "no session"
// @Failure 403 {object} httpkit.Envelope "not an admin"
// @Failure 404 {object} httpkit.Envelope "unknown user"
// @Router /admin/reset-limit [post]
func (h *handlers) resetLimit(r *stdhttp.Request) (any, error) {
	by, err := h.requester(r)
	if err != nil {
		return nil, err
	}
	var in domain.ResetLimitInput
	if r.ContentLength > 0 {
		if in, err = bind.ParseJSON[domain.ResetLimitInput](r); err != nil {
			return nil, err
		}
	}
	return h.svc.ResetLimit(r.Context(), by, in)
}
