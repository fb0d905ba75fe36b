// Package http provides meta endpoints
package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"quickgithub/internal/core/version"
	"quickgithub/internal/modkit/httpkit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/store"
)

// Pinger is satisfied by every store backend
type Pinger = store.Pinger

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// Backends maps a backend name (postgres, redis, clickhouse) to its probe
	Backends map[string]Pinger
	// ReadyTimeout bounds all pings together; zero means 2s
	ReadyTimeout time.Duration

	now func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.now == nil {
		d.now = time.Now
	}
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"quickgithub-api"`
	Started string `json:"started"  example:"2026-10-01T13:00:00Z"`
	Uptime  int64  `json:"uptime"   example:"300"`
}

// ReadyCheck describes a single backend check
type ReadyCheck struct {
	Name   string `json:"name"   example:"redis"`
	Status string `json:"status" example:"ok"` // ok fail
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:6379: connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-01T13:05:00Z"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Liveness
// @Tags meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness of every backend
// @Tags meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Failure 503 {object} httpkit.Envelope{data=ReadyResponse} "a backend is down"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps.Backends))
	for n := range h.deps.Backends {
		names = append(names, n)
	}
	sort.Strings(names)

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(names))}
	for _, n := range names {
		c := ReadyCheck{Name: n, Status: "ok"}
		if err := h.deps.Backends[n].Ping(ctx); err != nil {
			c.Status, c.Error = "fail", err.Error()
			out.Status = "fail"
		}
		out.Checks = append(out.Checks, c)
	}
	out.Now = h.deps.now().UTC().Format(time.RFC3339)

	if out.Status != "ok" {
		return nil, perr.WithData(perr.Unavailablef("not ready"), out)
	}
	return out, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build information
// @Tags meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.For(h.deps.ServiceName), nil
}
