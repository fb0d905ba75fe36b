// Package reaper runs the periodic stalled-run sweep outside the api process
package reaper

import (
	"context"
	"errors"
	"time"

	"quickgithub/internal/platform/config"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/services/api/indexing/domain"
)

// Options tune the sweep loop
type Options struct {
	Interval time.Duration
	// Grace is how long a row may sit in progress untouched
	Grace time.Duration
	Batch int
}

// FromConfig reads REAPER_* from the root view
func FromConfig(root config.Conf) Options {
	c := root.Prefix("REAPER_")
	return Options{
		Interval: c.MayDuration("INTERVAL", time.Minute),
		Grace:    c.MayDuration("GRACE", 10*time.Minute),
		Batch:    c.MayPositiveInt("BATCH", 100),
	}
}

// Runner drives a ReaperPort on a ticker
type Runner struct {
	port domain.ReaperPort
	opt  Options
	log  logger.Logger
}

// New builds a runner; zero options take the FromConfig defaults
func New(port domain.ReaperPort, opt Options) *Runner {
	if port == nil {
		panic("reaper: nil port")
	}
	if opt.Interval <= 0 {
		opt.Interval = time.Minute
	}
	if opt.Grace <= 0 {
		opt.Grace = 10 * time.Minute
	}
	if opt.Batch <= 0 {
		opt.Batch = 100
	}
	return &Runner{port: port, opt: opt, log: *logger.Named("reaper")}
}

// Sweep runs one pass; a full batch is drained before returning
func (r *Runner) Sweep(ctx context.Context) (domain.ReapResult, error) {
	var total domain.ReapResult
	for {
		res, err := r.port.Reap(ctx, domain.ReapInput{Grace: r.opt.Grace, Limit: r.opt.Batch})
		total.Scanned += res.Scanned
		total.Reaped += res.Reaped
		total.Skipped += res.Skipped
		if err != nil {
			return total, err
		}
		// skipped rows come back on the next scan, so only keep going while progress is made
		if res.Scanned < r.opt.Batch || res.Reaped == 0 {
			return total, nil
		}
	}
}

// Run sweeps immediately and then every Interval until ctx ends
// Sweep errors are logged and the loop continues
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info().
		Dur("interval", r.opt.Interval).
		Dur("grace", r.opt.Grace).
		Int("batch", r.opt.Batch).
		Msg("reaper started")

	t := time.NewTicker(r.opt.Interval)
	defer t.Stop()

	for {
		r.once(ctx)
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reaper stopped")
			return nil
		case <-t.C:
		}
	}
}

func (r *Runner) once(ctx context.Context) {
	start := time.Now()
	res, err := r.Sweep(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.log.Error().Err(err).Int("reaped", res.Reaped).Msg("sweep failed")
		return
	}
	ev := r.log.Debug()
	if res.Reaped > 0 {
		ev = r.log.Info()
	}
	ev.Int("scanned", res.Scanned).
		Int("reaped", res.Reaped).
		Int("skipped", res.Skipped).
		Dur("took", time.Since(start)).
		Msg("sweep done")
}
