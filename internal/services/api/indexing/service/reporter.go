package service

import (
	"context"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/metrics"
	"quickgithub/internal/services/api/indexing/domain"
)

const (
	msgInvalidSlug = "Invalid repository format"
	msgTimeout     = "Status polling timed out"
	msgNoRepo      = "Repository not found"
	msgPollError   = "Internal error polling status"
	msgStalled     = "Indexing appears to have stalled"
)

// Subscribe polls the stores and hands every frame to emit until the run ends
//
// The snapshot wins over the ledger. Frames never move backwards: a frame that
// ranks below the last lifecycle frame is replaced by that last frame. The
// escape states bypass the ordering.
//
// It returns nil after a closing frame, ctx.Err() on cancellation, or the emit error.
func (s *Svc) Subscribe(ctx context.Context, k domain.RepoKey, emit func(domain.Event) error) error {
	if !k.Valid() {
		return perr.Validationf(msgInvalidSlug)
	}

	final := "cancelled"
	var closing domain.Status
	metrics.StreamsActive.Inc()
	defer func() {
		metrics.StreamsActive.Dec()
		metrics.StreamsClosed.WithLabelValues(final).Inc()
		s.record(ctx, "stream", k, "", final, closing)
	}()

	deadline := s.now().Add(s.timeout)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last *domain.Event
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev domain.Event
		if !s.now().Before(deadline) {
			ev = domain.Event{Status: domain.StatusTimeout, Message: msgTimeout}
		} else {
			ev = s.pollOnce(ctx, k)
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if !ev.Status.Escape() {
			if last != nil && regresses(ev, *last) {
				ev = *last
			} else {
				cp := ev
				last = &cp
			}
		}

		if err := emit(ev); err != nil {
			final = "client_gone"
			return err
		}
		if ev.Status.EndsStream() {
			closing = ev.Status
			final = string(ev.Status)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollOnce reads the snapshot, then falls back to the ledger and the liveness check
func (s *Svc) pollOnce(ctx context.Context, k domain.RepoKey) domain.Event {
	ev, ok, err := s.snaps.Get(ctx, k)
	if err != nil {
		return s.pollFailed(ctx, k, err)
	}
	if ok {
		return ev
	}

	r, ok, err := s.Ledger.FindRepo(ctx, k.FullName())
	if err != nil {
		return s.pollFailed(ctx, k, err)
	}
	if !ok {
		return domain.Event{Status: domain.StatusNotFound, Message: msgNoRepo}
	}

	if r.Status.InProgress() {
		live, err := s.rec.IsRunLive(ctx, k, r.Status)
		if err != nil {
			return s.pollFailed(ctx, k, err)
		}
		if !live {
			return domain.Event{Status: domain.StatusStalled, Progress: r.Progress, Message: msgStalled}
		}
	}
	return r.Event()
}

func (s *Svc) pollFailed(ctx context.Context, k domain.RepoKey, err error) domain.Event {
	if ctx.Err() != nil {
		return domain.Event{Status: domain.StatusError, Message: msgPollError}
	}
	logger.Repo(logger.C(ctx), k.FullName()).Warn().Err(err).Msg("status poll failed")
	return domain.Event{Status: domain.StatusError, Message: msgPollError}
}

func regresses(next, last domain.Event) bool {
	if next.Status.Rank() != last.Status.Rank() {
		return next.Status.Rank() < last.Status.Rank()
	}
	return next.Progress < last.Progress
}
