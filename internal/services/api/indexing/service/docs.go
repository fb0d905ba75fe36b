package service

import (
	"context"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/services/api/indexing/domain"
)

const (
	msgNoDocs   = "Documentation not found"
	fillTimeout = 10 * time.Second
)

// Docs is the two-tier documentation read
//
// The ledger stamp is always read first. A cached copy is served only when it
// was built from the same (status, updatedAt); otherwise the body is reloaded
// from the ledger and the cache refilled. Concurrent misses share one load.
func (s *Svc) Docs(ctx context.Context, k domain.RepoKey) (domain.Docs, error) {
	if !k.Valid() {
		return domain.Docs{}, perr.Validationf(msgInvalidRepo)
	}

	stamp, ok, err := s.Ledger.Stamp(ctx, k.FullName())
	if err != nil {
		return domain.Docs{}, err
	}
	if !ok {
		return domain.Docs{}, perr.NotFoundf(msgNoDocs)
	}

	log := logger.Repo(logger.C(ctx), k.FullName())
	if cached, hit, err := s.docs.Get(ctx, k); err != nil {
		log.Warn().Err(err).Msg("docs cache read failed")
	} else if hit && sameStamp(cached.Stamp(), stamp) {
		return cached, nil
	}

	v, err, _ := s.fill.Do(k.FullName(), func() (any, error) {
		// shared by every waiter, so it must outlive the caller that started it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		d, ok, err := s.Ledger.LoadDocs(ctx, k.FullName())
		if err != nil {
			return domain.Docs{}, err
		}
		if !ok {
			return domain.Docs{}, perr.NotFoundf(msgNoDocs)
		}
		if err := s.docs.Put(ctx, k, d); err != nil {
			log.Warn().Err(err).Msg("docs cache fill failed")
		}
		return d, nil
	})
	if err != nil {
		return domain.Docs{}, err
	}
	return v.(domain.Docs), nil
}

func sameStamp(a, b domain.Stamp) bool {
	return a.Status == b.Status && a.UpdatedAt.Equal(b.UpdatedAt)
}
