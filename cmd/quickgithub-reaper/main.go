package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"quickgithub/internal/modkit"
	"quickgithub/internal/modkit/module"
	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/store"

	indexingmod "quickgithub/internal/services/api/indexing/module"
	"quickgithub/internal/services/reaper"
)

const serviceName = "quickgithub-reaper"

func main() {
	fOnce := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	logger.Init(func() logger.Options {
		o := logger.FromEnv()
		if o.Service == "" {
			o.Service = serviceName
		}
		return o
	}())
	l := logger.Get()

	root := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFrom(root, serviceName), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mod := indexingmod.NewReaper(modkit.FromStore(st, root), indexingmod.FromConfig(root))
	ports := module.MustPortsOf[indexingmod.Ports](mod)
	r := reaper.New(ports.Reaper, reaper.FromConfig(root))

	if *fOnce {
		res, err := r.Sweep(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("reaper sweep failed")
		}
		l.Info().Int("scanned", res.Scanned).Int("reaped", res.Reaped).Int("skipped", res.Skipped).Msg("sweep done")
		return
	}

	if err := r.Run(ctx); err != nil {
		l.Error().Err(err).Msg("reaper stopped")
	}
}
