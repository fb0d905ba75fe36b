// Package service contains the indexing lifecycle workflows: submit, stream, lookup and reap
package service

import (
	"context"
	"time"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/adapters/queue"
	"quickgithub/internal/modkit/repokit"
	"quickgithub/internal/platform/logger"
	"quickgithub/internal/services/api/indexing/domain"
	"quickgithub/internal/services/api/indexing/repo"

	"golang.org/x/sync/singleflight"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Prober answers whether a repository exists upstream
type Prober interface {
	Exists(ctx context.Context, owner, repo string) (gh.Existence, error)
}

// Stores are the redis-backed collaborators
type Stores struct {
	Indexing  repo.IndexingLocks
	Worker    repo.WorkerLocks
	Snapshots repo.Snapshots
	Docs      repo.DocsCache
}

// StoresFrom adapts the concrete redis stores
func StoresFrom(e repo.Ephemeral) Stores {
	return Stores{Indexing: e.Indexing, Worker: e.Worker, Snapshots: e.Snapshots, Docs: e.Docs}
}

// Options control service behavior
type Options struct {
	MaxReposPerUser int
	PollInterval    time.Duration
	StreamTimeout   time.Duration

	// Stores, Prober and Enqueuer are required
	Stores   Stores
	Prober   Prober
	Enqueuer queue.Enqueuer

	// Events is optional
	Events repo.Events
}

// Svc implements the service port
type Svc struct {
	Ledger repo.Ledger
	binder repokit.Binder[repo.Ledger]
	db     repokit.TxRunner

	rec    *Reconciler
	locks  repo.IndexingLocks
	snaps  repo.Snapshots
	docs   repo.DocsCache
	probe  Prober
	queue  queue.Enqueuer
	events repo.Events

	maxRepos int
	poll     time.Duration
	timeout  time.Duration

	fill singleflight.Group
	log  logger.Logger
	now  func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Ledger], opt Options) *Svc {
	if db == nil {
		panic("indexing.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("indexing.Service requires a non nil Ledger binder")
	}
	st := opt.Stores
	if st.Indexing == nil || st.Worker == nil || st.Snapshots == nil || st.Docs == nil {
		panic("indexing.Service requires every ephemeral store")
	}
	if opt.Prober == nil {
		panic("indexing.Service requires a non nil Prober")
	}
	if opt.Enqueuer == nil {
		panic("indexing.Service requires a non nil Enqueuer")
	}
	if opt.Events == nil {
		opt.Events = repo.NopEvents{}
	}
	if opt.MaxReposPerUser <= 0 {
		opt.MaxReposPerUser = 1
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 500 * time.Millisecond
	}
	if opt.StreamTimeout <= 0 {
		opt.StreamTimeout = 2 * time.Minute
	}

	return &Svc{
		Ledger:   binder.Bind(db),
		binder:   binder,
		db:       db,
		rec:      NewReconciler(st.Worker, st.Indexing, st.Snapshots),
		locks:    st.Indexing,
		snaps:    st.Snapshots,
		docs:     st.Docs,
		probe:    opt.Prober,
		queue:    opt.Enqueuer,
		events:   opt.Events,
		maxRepos: opt.MaxReposPerUser,
		poll:     opt.PollInterval,
		timeout:  opt.StreamTimeout,
		log:      *logger.Named("indexing"),
		now:      time.Now,
	}
}

// Reconciler exposes the liveness checks for other modules (the reaper)
func (s *Svc) Reconciler() *Reconciler { return s.rec }

func (s *Svc) record(ctx context.Context, kind string, k domain.RepoKey, userID, outcome string, st domain.Status) {
	s.events.Record(ctx, domain.AuditEvent{
		At:       s.now().UTC(),
		Kind:     kind,
		FullName: k.FullName(),
		UserID:   userID,
		Outcome:  outcome,
		Status:   st,
	})
}
