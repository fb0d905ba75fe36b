package service

import (
	"context"

	"quickgithub/internal/services/api/indexing/domain"
	"quickgithub/internal/services/api/indexing/repo"
)

// Reconciler decides whether the ledger's claim of an active run is backed by a live process
//
// It only reads locks and snapshots. The one write it performs is the compare-and-delete of a
// token the caller observed, so a lock acquired after the observation is never touched.
type Reconciler struct {
	worker   repo.WorkerLocks
	indexing repo.IndexingLocks
	snaps    repo.Snapshots
}

// NewReconciler wires the two lock families and the snapshot they guard
func NewReconciler(w repo.WorkerLocks, i repo.IndexingLocks, s repo.Snapshots) *Reconciler {
	if w == nil || i == nil || s == nil {
		panic("indexing.Reconciler requires both lock stores and snapshots")
	}
	return &Reconciler{worker: w, indexing: i, snaps: s}
}

// IsWorkerAlive reports whether a worker currently holds the liveness lock
func (r *Reconciler) IsWorkerAlive(ctx context.Context, k domain.RepoKey) (bool, error) {
	return r.worker.Held(ctx, k)
}

// ClearIfStale reports true when no worker holds the liveness lock
//
// It has no side effects; stale artifacts are cleared by the dispatcher only
// after it owns the admission lock.
func (r *Reconciler) ClearIfStale(ctx context.Context, k domain.RepoKey) (bool, error) {
	held, err := r.worker.Held(ctx, k)
	if err != nil {
		return false, err
	}
	return !held, nil
}

// IsRunLive reports whether an in-progress status is backed by a process
//
// A PENDING run that is queued but not yet picked up has no worker lock, only the
// admission lock; it counts as live so the stream does not report it stalled.
func (r *Reconciler) IsRunLive(ctx context.Context, k domain.RepoKey, st domain.Status) (bool, error) {
	alive, err := r.worker.Held(ctx, k)
	if err != nil || alive {
		return alive, err
	}
	if st != domain.StatusPending {
		return false, nil
	}
	_, held, err := r.indexing.Token(ctx, k)
	return held, err
}

// Quiet reports whether neither lock exists for k
func (r *Reconciler) Quiet(ctx context.Context, k domain.RepoKey) (bool, error) {
	alive, err := r.worker.Held(ctx, k)
	if err != nil || alive {
		return false, err
	}
	_, held, err := r.indexing.Token(ctx, k)
	if err != nil {
		return false, err
	}
	return !held, nil
}

// ReleaseStale drops an admission lock left behind by an earlier run
//
// The worker never clears the admission lock, so it outlives every run by up to
// its TTL. A token is reclaimed only while the snapshot shows the run moved past
// PENDING; a PENDING snapshot means a queued run that no worker has taken yet.
// The delete is a compare-and-delete on the observed token.
func (r *Reconciler) ReleaseStale(ctx context.Context, k domain.RepoKey, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ev, ok, err := r.snaps.Get(ctx, k)
	if err != nil {
		return false, err
	}
	if ok && ev.Status == domain.StatusPending {
		return false, nil
	}
	return r.indexing.Release(ctx, k, token)
}
