// Package api provides the HTTP API for the application
package api

import (
	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/metrics"
	phttp "quickgithub/internal/platform/net/http"
	"quickgithub/internal/platform/net/middleware"
	"quickgithub/internal/platform/store"

	"quickgithub/internal/modkit"
	"quickgithub/internal/modkit/httpkit"
	"quickgithub/internal/modkit/module"
	"quickgithub/internal/modkit/swaggerkit"

	indexingmod "quickgithub/internal/services/api/indexing/module"
	metamod "quickgithub/internal/services/api/meta/module"

	"github.com/prometheus/client_golang/prometheus"
)

// ServiceName identifies the api process in meta responses and logs
const ServiceName = "quickgithub-api"

// Options are the API options
type Options struct {
	// Config is the root view; modules take their own prefixes from it
	Config config.Conf
	Store  *store.Store
	CORS   middleware.CORSOptions

	// Metrics is served on /metrics; nil builds a fresh registry
	Metrics *prometheus.Registry

	EnableSwagger  bool
	EnableProfiler bool

	// Indexing options are appended to the module defaults (tests inject collaborators here)
	Indexing []modkit.Option
}

// API holds the mounted modules
type API struct {
	Indexing *indexingmod.Module
	Meta     *metamod.Module
}

// Mount mounts the API service onto the given router; r must not have routes yet
func Mount(r phttp.Router, opt Options) *API {
	if opt.Store == nil {
		panic("api: Mount requires a store")
	}
	if opt.Metrics == nil {
		opt.Metrics = metrics.NewRegistry()
	}

	deps := modkit.FromStore(opt.Store, opt.Config)

	a := &API{
		Indexing: indexingmod.New(deps, opt.Indexing...),
		Meta:     metamod.New(ServiceName, opt.Store.Pingers()),
	}
	mods := []module.Module{a.Meta, a.Indexing}

	r.Use(httpkit.CommonStack(opt.CORS)...)

	httpkit.MountAPI(r, "", nil, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	r.Handle("/metrics", metrics.Handler(opt.Metrics))
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	deps.Log.Info().Strs("modules", names(mods)).
		Bool("swagger", opt.EnableSwagger).
		Bool("profiler", opt.EnableProfiler).
		Msg("api mounted")
	return a
}

// Close releases module-owned clients
func (a *API) Close() error {
	if a == nil {
		return nil
	}
	return a.Indexing.Close()
}

func names(mods []module.Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Name())
	}
	return out
}
