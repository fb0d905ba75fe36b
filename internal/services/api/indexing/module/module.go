// Package module wires indexing into the API using modkit
package module

import (
	"net/http"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/adapters/queue"
	"quickgithub/internal/adapters/session"
	modkit "quickgithub/internal/modkit"
	"quickgithub/internal/modkit/httpkit"
	"quickgithub/internal/modkit/swaggerkit"
	phttp "quickgithub/internal/platform/net/http"
	"quickgithub/internal/platform/net/middleware"

	"quickgithub/internal/services/api/indexing/domain"
	ihttp "quickgithub/internal/services/api/indexing/http"
	"quickgithub/internal/services/api/indexing/repo"
	"quickgithub/internal/services/api/indexing/service"
)

// Module implements the indexing API module
type Module struct {
	built modkit.Built
	svc   *service.Svc
	queue queue.Closer
	ports Ports
}

// Ports is what indexing exposes to other wiring
type Ports struct {
	Service domain.ServicePort
	Reaper  domain.ReaperPort
}

// Injected lets callers supply collaborators instead of building them from config
// Pass it with modkit.WithPorts; zero fields fall back to config
type Injected struct {
	Enqueuer queue.Enqueuer
	Prober   service.Prober
	Auth     middleware.AuthPort
	IsAdmin  func(userID string) bool
}

// New constructs the indexing module; it panics when a required backend or setting is missing
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return NewWith(deps, FromConfig(deps.Cfg), opts...)
}

// NewWith is New with explicit options
func NewWith(deps modkit.Deps, cfg Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("indexing"),
	}, opts...)...)

	if deps.PG == nil {
		panic("indexing module requires postgres")
	}
	if deps.RDS == nil {
		panic("indexing module requires redis")
	}

	var in Injected
	if p, ok := b.Ports.(Injected); ok {
		in = p
	}

	m := &Module{}

	if in.Prober == nil {
		in.Prober = gh.NewProbe(gh.NewClient(cfg.GitHub))
	}
	if in.Enqueuer == nil {
		q, err := queue.FromConfig(deps.Cfg, deps.RDS)
		if err != nil {
			panic("indexing module: " + err.Error())
		}
		m.queue = q
		in.Enqueuer = q
	}
	if in.Auth == nil {
		v := session.New(cfg.JWTSecret, cfg.AdminIDs)
		in.Auth = httpkit.NewPortFunc(v.Parse)
		if in.IsAdmin == nil {
			in.IsAdmin = v.IsAdmin
		}
	}

	eph := repo.NewEphemeral(deps.RDS, repo.EphemeralOptions{
		LockTTL:   cfg.LockTTL,
		StatusTTL: cfg.StatusTTL,
		DocsTTL:   cfg.DocsTTL,
	})

	m.svc = service.New(deps.PG, repo.NewPG(), service.Options{
		MaxReposPerUser: cfg.MaxReposPerUser,
		PollInterval:    cfg.PollInterval,
		StreamTimeout:   cfg.StreamTimeout,
		Stores:          service.StoresFrom(eph),
		Prober:          in.Prober,
		Enqueuer:        in.Enqueuer,
		Events:          repo.NewEvents(deps.CH),
	})
	m.ports = Ports{Service: m.svc, Reaper: m.svc}

	mws := b.Mw
	if cfg.RateLimit > 0 {
		mws = append([]func(http.Handler) http.Handler{
			httpkit.RateLimit(middleware.NewSlidingWindow(deps.RDS, cfg.RateLimit, cfg.RateWindow)),
		}, mws...)
	}

	external := b.Register
	m.built = modkit.Built{
		Name:   b.Name,
		Prefix: b.Prefix,
		Mw:     mws,
		Ports:  m.ports,
		Register: func(r phttp.Router) {
			ihttp.Register(r, m.svc, ihttp.Options{
				Auth:    in.Auth,
				IsAdmin: in.IsAdmin,
				Timeout: cfg.RequestTimeout,
			})
			external(r)
		},
	}

	swaggerkit.Register(bearerScheme)
	return m
}

// NewReaper builds only the sweep side of indexing; it has no routes, queue or session verifier
func NewReaper(deps modkit.Deps, cfg Options) *Module {
	if deps.PG == nil || deps.RDS == nil {
		panic("indexing reaper requires postgres and redis")
	}
	eph := repo.NewEphemeral(deps.RDS, repo.EphemeralOptions{
		LockTTL:   cfg.LockTTL,
		StatusTTL: cfg.StatusTTL,
		DocsTTL:   cfg.DocsTTL,
	})
	svc := service.NewReaper(deps.PG, repo.NewPG(), service.StoresFrom(eph), repo.NewEvents(deps.CH))

	m := &Module{svc: svc, ports: Ports{Reaper: svc}}
	m.built = modkit.Build(modkit.WithName("indexing-reaper"), modkit.WithPorts(m.ports))
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) { m.built.Mount(r) }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Close releases the queue client the module opened itself
func (m *Module) Close() error {
	if m.queue == nil {
		return nil
	}
	return m.queue.Close()
}

// bearerScheme makes sure the served spec declares the session scheme the protected routes reference
func bearerScheme(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemes, ok := comps["securitySchemes"].(map[string]any)
	if !ok {
		schemes = map[string]any{}
		comps["securitySchemes"] = schemes
	}
	if _, ok := schemes["BearerAuth"]; ok {
		return
	}
	schemes["BearerAuth"] = map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
}
