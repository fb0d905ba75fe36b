package service

import (
	"context"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/adapters/queue"
	"quickgithub/internal/modkit/repokit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/platform/metrics"
	"quickgithub/internal/services/api/indexing/domain"
)

const (
	msgInvalidRepo    = "Invalid repository format. Use owner/repo (e.g. vercel/next.js)"
	msgInProgress     = "Indexing already in progress"
	msgUserNotFound   = "User not found"
	msgNotOnGitHub    = "Repository not found on GitHub"
	msgCannotVerify   = "Could not verify repository"
	msgQueueFailed    = "Could not queue indexing job"
	msgQueued         = "Queued"
	msgQuotaFormat    = "Free tier limit: max %d repo(s)"
	msgUnauthorized   = "Unauthorized"
	msgStalledFailure = "Indexing stalled"
)

// Submit admits a new indexing run or explains why it cannot start
//
// Nothing is written until the admission lock is ours, so a rejected call leaves
// both stores exactly as it found them.
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (out domain.SubmitOutput, err error) {
	k := in.Key
	outcome := "error"
	defer func() {
		metrics.Submissions.WithLabelValues(outcome).Inc()
		var st domain.Status
		if err == nil {
			st = domain.StatusPending
		}
		s.record(ctx, "submit", k, in.Requester.UserID, outcome, st)
	}()

	if !k.Valid() {
		outcome = "invalid"
		return out, perr.Validationf(msgInvalidRepo)
	}
	if in.Requester.UserID == "" {
		outcome = "unauthorized"
		return out, perr.Unauthorizedf(msgUnauthorized)
	}
	log := logger.Repo(logger.C(ctx), k.FullName())

	existing, exists, err := s.Ledger.FindRepo(ctx, k.FullName())
	if err != nil {
		return out, err
	}
	observed, _, err := s.locks.Token(ctx, k)
	if err != nil {
		return out, err
	}

	if exists && existing.Status.InProgress() {
		live, err := s.rec.IsRunLive(ctx, k, existing.Status)
		if err != nil {
			return out, err
		}
		if live {
			outcome = "conflict"
			return out, conflict(existing.ID, k)
		}
	}

	user, ok, err := s.Ledger.FindUser(ctx, in.Requester.UserID)
	if err != nil {
		return out, err
	}
	if !ok {
		outcome = "unknown_user"
		return out, perr.NotFoundf(msgUserNotFound)
	}
	owned := exists && existing.ClaimedByID == in.Requester.UserID
	if !in.Requester.BypassesQuota() && !owned && user.ReposClaimed >= s.maxRepos {
		outcome = "quota"
		return out, perr.Forbiddenf(msgQuotaFormat, s.maxRepos)
	}

	switch found, probeErr := s.probe.Exists(ctx, k.Owner, k.Repo); found {
	case gh.Exists:
	case gh.NotFound:
		outcome = "not_found"
		return out, perr.NotFoundf(msgNotOnGitHub)
	default:
		outcome = "upstream"
		log.Warn().Err(probeErr).Msg("github probe indeterminate")
		return out, perr.BadGatewayf(msgCannotVerify)
	}

	// the worker may have started between the first look and now
	stale, err := s.rec.ClearIfStale(ctx, k)
	if err != nil {
		return out, err
	}
	if !stale {
		outcome = "conflict"
		return out, conflict(existing.ID, k)
	}
	if _, err := s.rec.ReleaseStale(ctx, k, observed); err != nil {
		return out, err
	}

	token, ok, err := s.locks.Acquire(ctx, k, domain.Event{Status: domain.StatusPending, Message: msgQueued})
	if err != nil {
		return out, err
	}
	if !ok {
		outcome = "conflict"
		return out, conflict(existing.ID, k)
	}

	row, err := s.admit(ctx, k, in.Requester.UserID, existing, exists)
	if err != nil {
		s.rollback(ctx, k, token)
		return out, err
	}

	job := queue.Job{
		RepoID:   row.ID,
		Owner:    k.Owner,
		Repo:     k.Repo,
		FullName: k.FullName(),
		AgentSDK: in.Requester.Tier.AgentSDK(),
	}
	rcpt, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		outcome = "queue_failed"
		log.Error().Err(err).Str("repo_id", row.ID).Msg("enqueue failed")
		s.compensate(ctx, k, row.ID, token)
		return out, perr.Wrap(err, perr.ErrorCodeUnavailable, msgQueueFailed)
	}

	outcome = "accepted"
	log.Info().Str("repo_id", row.ID).Str("task_id", rcpt.TaskID).Str("agent", job.AgentSDK).Msg("indexing queued")
	return domain.SubmitOutput{RepoID: row.ID, StatusURL: k.StatusURL()}, nil
}

// admit resets the ledger row in one transaction
//
// The PENDING snapshot was written together with the lock, so a reader never
// finds the new row without a status.
func (s *Svc) admit(ctx context.Context, k domain.RepoKey, userID string, prev domain.Repo, exists bool) (domain.Repo, error) {
	reindex := exists && prev.Status == domain.StatusCompleted
	var row domain.Repo
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		l := s.binder.Bind(q)
		if reindex {
			if err := l.DeleteDocs(ctx, prev.ID); err != nil {
				return err
			}
		}
		r, inserted, err := l.UpsertPending(ctx, domain.UpsertInput{Key: k, ClaimedByID: userID})
		if err != nil {
			return err
		}
		if inserted {
			if err := l.IncrementClaims(ctx, userID); err != nil {
				return err
			}
		}
		row = r
		return nil
	})
	if err != nil {
		return domain.Repo{}, err
	}

	if reindex {
		if err := s.docs.Delete(ctx, k); err != nil {
			logger.C(ctx).Warn().Err(err).Str("repo", k.FullName()).Msg("docs cache delete failed")
		}
	}
	return row, nil
}

// rollback undoes admission when the ledger write failed
// The ledger still holds the previous state, which the reporter falls back to.
func (s *Svc) rollback(ctx context.Context, k domain.RepoKey, token string) {
	ctx = context.WithoutCancel(ctx)
	log := logger.Repo(logger.C(ctx), k.FullName())
	if err := s.snaps.Delete(ctx, k); err != nil {
		log.Warn().Err(err).Msg("snapshot cleanup failed")
	}
	if _, err := s.locks.Release(ctx, k, token); err != nil {
		log.Warn().Err(err).Msg("lock release failed")
	}
}

// compensate leaves the run FAILED so the repository can be submitted again
func (s *Svc) compensate(ctx context.Context, k domain.RepoKey, repoID, token string) {
	ctx = context.WithoutCancel(ctx)
	log := logger.Repo(logger.C(ctx), k.FullName())
	ev := domain.Event{Status: domain.StatusFailed, Message: msgQueueFailed}
	if err := s.snaps.Put(ctx, k, ev); err != nil {
		log.Warn().Err(err).Msg("failed snapshot write failed")
	}
	if _, err := s.Ledger.MarkFailed(ctx, repoID, msgQueueFailed); err != nil {
		log.Warn().Err(err).Msg("ledger mark failed")
	}
	if _, err := s.locks.Release(ctx, k, token); err != nil {
		log.Warn().Err(err).Msg("lock release failed")
	}
}

func conflict(repoID string, k domain.RepoKey) error {
	return perr.WithData(perr.Conflictf(msgInProgress), domain.ConflictData{RepoID: repoID, StatusURL: k.StatusURL()})
}
