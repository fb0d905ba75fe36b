package service

import (
	"context"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/adapters/queue"
	"quickgithub/internal/modkit/repokit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/metrics"
	"quickgithub/internal/services/api/indexing/domain"
	"quickgithub/internal/services/api/indexing/repo"
)

// NewReaper builds a Svc for processes that only sweep; admission calls fail as unavailable
func NewReaper(db repokit.TxRunner, binder repokit.Binder[repo.Ledger], st Stores, events repo.Events) *Svc {
	return New(db, binder, Options{Stores: st, Prober: unwired{}, Enqueuer: unwired{}, Events: events})
}

type unwired struct{}

func (unwired) Exists(context.Context, string, string) (gh.Existence, error) {
	return gh.Indeterminate, perr.Unavailablef("github probe is not wired in this process")
}

func (unwired) Enqueue(context.Context, queue.Job) (queue.Receipt, error) {
	return queue.Receipt{}, perr.Unavailablef("queue is not wired in this process")
}

// Reap fails ledger rows whose run died without reporting
//
// A row qualifies when it has been in progress and untouched for longer than
// the grace period and neither the worker lock nor the admission lock exists.
// Worker locks are never written. The update is conditional on the row not
// having moved since the scan, and the FAILED snapshot is only written while
// no admission lock exists, so a submission racing the sweep keeps its run.
func (s *Svc) Reap(ctx context.Context, in domain.ReapInput) (domain.ReapResult, error) {
	if in.Limit <= 0 {
		in.Limit = 100
	}
	rows, err := s.Ledger.ListStuck(ctx, s.now().Add(-in.Grace), in.Limit)
	if err != nil {
		return domain.ReapResult{}, err
	}

	res := domain.ReapResult{Scanned: len(rows)}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		k := r.Key()
		log := s.log.With().Str("repo", r.FullName).Logger()

		quiet, err := s.rec.Quiet(ctx, k)
		if err != nil {
			log.Warn().Err(err).Msg("liveness check failed")
			res.Skipped++
			continue
		}
		if !quiet {
			res.Skipped++
			continue
		}

		moved, err := s.Ledger.MarkStalled(ctx, r.ID, r.UpdatedAt, msgStalledFailure)
		if err != nil {
			log.Warn().Err(err).Msg("mark failed")
			res.Skipped++
			continue
		}
		if !moved {
			// finished or resubmitted between the scan and the update
			res.Skipped++
			continue
		}
		ev := domain.Event{Status: domain.StatusFailed, Progress: r.Progress, Message: msgStalledFailure}
		if wrote, err := s.locks.PutIfUnlocked(ctx, k, ev); err != nil {
			log.Warn().Err(err).Msg("failed snapshot write failed")
		} else if !wrote {
			log.Info().Msg("admission lock appeared; snapshot left to the new run")
		}

		res.Reaped++
		metrics.Reaped.Inc()
		s.record(ctx, "reap", k, r.ClaimedByID, "reaped", domain.StatusFailed)
		log.Info().Str("from", string(r.Status)).Msg("stalled run marked failed")
	}
	return res, nil
}
