// @title         QuickGitHub API
// @version       0.1.0
// @description   Indexing submission, status streams and documentation lookup

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"quickgithub/internal/modkit/module"
	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/logger"
	phttp "quickgithub/internal/platform/net/http"
	"quickgithub/internal/platform/net/middleware"
	"quickgithub/internal/platform/store"

	"quickgithub/internal/services/api"
	indexingmod "quickgithub/internal/services/api/indexing/module"
	"quickgithub/internal/services/api/indexing/repo"
	"quickgithub/internal/services/reaper"

	"golang.org/x/sync/errgroup"
)

func main() {
	logger.Init(func() logger.Options {
		o := logger.FromEnv()
		if o.Service == "" {
			o.Service = api.ServiceName
		}
		return o
	}())
	l := logger.Get()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFrom(root, api.ServiceName), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if pgCfg.MayBool("MIGRATE", false) {
		if err := repo.Migrate(ctx, st.PG); err != nil {
			l.Panic().Err(err).Msg("ledger migration failed")
		}
	}
	// analytics is best effort; a missing table only costs events
	if err := repo.EnsureEventsTable(ctx, st.CH); err != nil {
		l.Warn().Err(err).Msg("clickhouse events table unavailable")
	}

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	a := api.Mount(srv.Router(), api.Options{
		Config: root,
		Store:  st,
		CORS: middleware.CORSOptions{
			AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		},
		EnableSwagger:  apiCfg.MayBool("ENABLE_SWAGGER", false),
		EnableProfiler: apiCfg.MayBool("ENABLE_PROFILER", false),
	})
	defer func() {
		if err := a.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close api")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, apiCfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second))
	})

	// single-process deployments can sweep from here instead of running quickgithub-reaper
	if root.MayBool("REAPER_EMBEDDED", false) {
		ports := module.MustPortsOf[indexingmod.Ports](a.Indexing)
		r := reaper.New(ports.Reaper, reaper.FromConfig(root))
		g.Go(func() error { return r.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("api stopped")
	}
}
