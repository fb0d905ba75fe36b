package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/adapters/queue"
	"quickgithub/internal/modkit/repokit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/store"
	"quickgithub/internal/services/api/indexing/domain"
	"quickgithub/internal/services/api/indexing/repo"
)

// memLedger is an in-memory Ledger; the memDB below gives it transaction semantics
type memLedger struct {
	mu    sync.Mutex
	repos map[string]domain.Repo
	users map[string]domain.User
	docs  map[string]domain.Docs // by repo id
	seq   int
	clock time.Time

	upsertErr error
	loads     atomic.Int32
}

func newMemLedger() *memLedger {
	return &memLedger{
		repos: map[string]domain.Repo{},
		users: map[string]domain.User{},
		docs:  map[string]domain.Docs{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (l *memLedger) tick() time.Time {
	l.clock = l.clock.Add(time.Second)
	return l.clock
}

func (l *memLedger) addUser(id string, claimed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[id] = domain.User{ID: id, ReposClaimed: claimed, Tier: domain.TierFree}
}

func (l *memLedger) addRepo(k domain.RepoKey, st domain.Status, progress int, claimedBy string) domain.Repo {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	now := l.tick()
	r := domain.Repo{
		ID:          fmt.Sprintf("repo-%d", l.seq),
		Owner:       k.Owner,
		Name:        k.Repo,
		FullName:    k.FullName(),
		Status:      st,
		Progress:    progress,
		ClaimedByID: claimedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.repos[r.FullName] = r
	return r
}

func (l *memLedger) addDocs(r domain.Repo) domain.Docs {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := domain.Docs{
		ID:             r.ID,
		Owner:          r.Owner,
		Name:           r.Name,
		FullName:       r.FullName,
		Status:         r.Status,
		UpdatedAt:      r.UpdatedAt,
		SystemOverview: []byte(`{"summary":"widgets"}`),
	}
	l.docs[r.ID] = d
	return d
}

func (l *memLedger) repo(fullName string) (domain.Repo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.repos[fullName]
	return r, ok
}

func (l *memLedger) user(id string) domain.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users[id]
}

func (l *memLedger) hasDocs(repoID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.docs[repoID]
	return ok
}

func (l *memLedger) setStatus(fullName string, st domain.Status, progress int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.repos[fullName]
	r.Status, r.Progress, r.UpdatedAt = st, progress, l.tick()
	l.repos[fullName] = r
}

type ledgerState struct {
	repos map[string]domain.Repo
	users map[string]domain.User
	docs  map[string]domain.Docs
}

func (l *memLedger) save() ledgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := ledgerState{repos: map[string]domain.Repo{}, users: map[string]domain.User{}, docs: map[string]domain.Docs{}}
	for k, v := range l.repos {
		s.repos[k] = v
	}
	for k, v := range l.users {
		s.users[k] = v
	}
	for k, v := range l.docs {
		s.docs[k] = v
	}
	return s
}

func (l *memLedger) restore(s ledgerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.repos, l.users, l.docs = s.repos, s.users, s.docs
}

func (l *memLedger) FindRepo(_ context.Context, fullName string) (domain.Repo, bool, error) {
	r, ok := l.repo(fullName)
	return r, ok, nil
}

func (l *memLedger) FindUser(_ context.Context, id string) (domain.User, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[id]
	return u, ok, nil
}

func (l *memLedger) UpsertPending(_ context.Context, in domain.UpsertInput) (domain.Repo, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.upsertErr != nil {
		return domain.Repo{}, false, l.upsertErr
	}
	r, ok := l.repos[in.Key.FullName()]
	if !ok {
		l.seq++
		r = domain.Repo{ID: fmt.Sprintf("repo-%d", l.seq), Owner: in.Key.Owner, Name: in.Key.Repo, FullName: in.Key.FullName(), CreatedAt: l.tick()}
	}
	r.Status, r.Progress, r.ErrorMessage, r.ClaimedByID, r.UpdatedAt = domain.StatusPending, 0, "", in.ClaimedByID, l.tick()
	l.repos[r.FullName] = r
	return r, !ok, nil
}

func (l *memLedger) IncrementClaims(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return perr.NotFoundf("User not found")
	}
	u.ReposClaimed++
	l.users[userID] = u
	return nil
}

func (l *memLedger) ResetClaims(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return false, nil
	}
	u.ReposClaimed = 0
	l.users[userID] = u
	return true, nil
}

func (l *memLedger) DeleteDocs(_ context.Context, repoID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.docs, repoID)
	return nil
}

func (l *memLedger) MarkFailed(_ context.Context, repoID, msg string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, r := range l.repos {
		if r.ID == repoID && r.Status.InProgress() {
			r.Status, r.ErrorMessage, r.UpdatedAt = domain.StatusFailed, msg, l.tick()
			l.repos[k] = r
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) MarkStalled(_ context.Context, repoID string, seen time.Time, msg string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, r := range l.repos {
		if r.ID == repoID && r.Status.InProgress() && !r.UpdatedAt.After(seen) {
			r.Status, r.ErrorMessage, r.UpdatedAt = domain.StatusFailed, msg, l.tick()
			l.repos[k] = r
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) Stamp(_ context.Context, fullName string) (domain.Stamp, bool, error) {
	r, ok := l.repo(fullName)
	return domain.Stamp{Status: r.Status, UpdatedAt: r.UpdatedAt}, ok, nil
}

func (l *memLedger) LoadDocs(ctx context.Context, fullName string) (domain.Docs, bool, error) {
	l.loads.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Docs{}, false, perr.Unavailablef("ledger: %v", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.repos[fullName]
	if !ok {
		return domain.Docs{}, false, nil
	}
	d, ok := l.docs[r.ID]
	if !ok {
		return domain.Docs{}, false, nil
	}
	d.Status, d.UpdatedAt = r.Status, r.UpdatedAt
	return d, true, nil
}

func (l *memLedger) ListStuck(_ context.Context, before time.Time, limit int) ([]domain.Repo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Repo
	for _, r := range l.repos {
		if r.Status.InProgress() && r.UpdatedAt.Before(before) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// memDB serializes transactions and restores the ledger when fn fails
type memDB struct {
	mu  sync.Mutex
	led *memLedger
}

func (d *memDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, errors.New("memDB: no sql")
}
func (d *memDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("memDB: no sql")
}
func (d *memDB) QueryRow(context.Context, string, ...any) store.Row { return nil }

func (d *memDB) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	saved := d.led.save()
	if err := fn(d); err != nil {
		d.led.restore(saved)
		return err
	}
	return nil
}

// memStores implements every redis store; Acquire seeds the snapshot atomically like the script does
type memStores struct {
	mu     sync.Mutex
	locks  map[string]string
	worker map[string]bool
	snaps  map[string]domain.Event
	docs   map[string]domain.Docs
	seq    int

	snapErrs int // next Get calls that fail
	snapPuts []domain.Event
}

func newMemStores() *memStores {
	return &memStores{
		locks:  map[string]string{},
		worker: map[string]bool{},
		snaps:  map[string]domain.Event{},
		docs:   map[string]domain.Docs{},
	}
}

func (m *memStores) stores() Stores {
	return Stores{Indexing: lockView{m}, Worker: workerView{m}, Snapshots: snapView{m}, Docs: docsView{m}}
}

func (m *memStores) setWorker(k domain.RepoKey, held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worker[k.FullName()] = held
}

func (m *memStores) setLock(k domain.RepoKey, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[k.FullName()] = token
}

func (m *memStores) lock(k domain.RepoKey) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.locks[k.FullName()]
	return t, ok
}

func (m *memStores) setSnap(k domain.RepoKey, ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[k.FullName()] = ev
}

func (m *memStores) dropSnap(k domain.RepoKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, k.FullName())
}

func (m *memStores) snap(k domain.RepoKey) (domain.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.snaps[k.FullName()]
	return ev, ok
}

func (m *memStores) cached(k domain.RepoKey) (domain.Docs, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[k.FullName()]
	return d, ok
}

type lockView struct{ m *memStores }

func (v lockView) Token(_ context.Context, k domain.RepoKey) (string, bool, error) {
	t, ok := v.m.lock(k)
	return t, ok, nil
}

func (v lockView) Acquire(_ context.Context, k domain.RepoKey, seed domain.Event) (string, bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, held := v.m.locks[k.FullName()]; held {
		return "", false, nil
	}
	v.m.seq++
	tok := fmt.Sprintf("tok-%d", v.m.seq)
	v.m.locks[k.FullName()] = tok
	v.m.snaps[k.FullName()] = seed
	return tok, true, nil
}

func (v lockView) Release(_ context.Context, k domain.RepoKey, token string) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if token == "" || v.m.locks[k.FullName()] != token {
		return false, nil
	}
	delete(v.m.locks, k.FullName())
	return true, nil
}

func (v lockView) PutIfUnlocked(_ context.Context, k domain.RepoKey, ev domain.Event) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, held := v.m.locks[k.FullName()]; held {
		return false, nil
	}
	v.m.snaps[k.FullName()] = ev
	v.m.snapPuts = append(v.m.snapPuts, ev)
	return true, nil
}

type workerView struct{ m *memStores }

func (v workerView) Held(_ context.Context, k domain.RepoKey) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.m.worker[k.FullName()], nil
}

type snapView struct{ m *memStores }

func (v snapView) Get(_ context.Context, k domain.RepoKey) (domain.Event, bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.m.snapErrs > 0 {
		v.m.snapErrs--
		return domain.Event{}, false, perr.Unavailablef("redis down")
	}
	ev, ok := v.m.snaps[k.FullName()]
	return ev, ok, nil
}

func (v snapView) Put(_ context.Context, k domain.RepoKey, ev domain.Event) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.snaps[k.FullName()] = ev
	v.m.snapPuts = append(v.m.snapPuts, ev)
	return nil
}

func (v snapView) Delete(_ context.Context, k domain.RepoKey) error {
	v.m.dropSnap(k)
	return nil
}

type docsView struct{ m *memStores }

func (v docsView) Get(_ context.Context, k domain.RepoKey) (domain.Docs, bool, error) {
	d, ok := v.m.cached(k)
	return d, ok, nil
}

func (v docsView) Put(_ context.Context, k domain.RepoKey, d domain.Docs) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.docs[k.FullName()] = d
	return nil
}

func (v docsView) Delete(_ context.Context, k domain.RepoKey) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	delete(v.m.docs, k.FullName())
	return nil
}

type fakeProbe struct {
	res   gh.Existence
	err   error
	calls atomic.Int32
}

func (p *fakeProbe) Exists(context.Context, string, string) (gh.Existence, error) {
	p.calls.Add(1)
	return p.res, p.err
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, j queue.Job) (queue.Receipt, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return queue.Receipt{}, q.err
	}
	q.jobs = append(q.jobs, j)
	return queue.Receipt{TaskID: fmt.Sprintf("task-%d", len(q.jobs)), Queue: "default"}, nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type recEvents struct {
	mu  sync.Mutex
	evs []domain.AuditEvent
}

func (r *recEvents) Record(_ context.Context, ev domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

type harness struct {
	svc    *Svc
	led    *memLedger
	st     *memStores
	probe  *fakeProbe
	queue  *fakeQueue
	events *recEvents
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		led:    newMemLedger(),
		st:     newMemStores(),
		probe:  &fakeProbe{res: gh.Exists},
		queue:  &fakeQueue{},
		events: &recEvents{},
	}
	opt := Options{
		MaxReposPerUser: 1,
		PollInterval:    time.Millisecond,
		StreamTimeout:   time.Second,
		Stores:          h.st.stores(),
		Prober:          h.probe,
		Enqueuer:        h.queue,
		Events:          h.events,
	}
	for _, m := range mutate {
		m(&opt)
	}
	binder := repokit.BindFunc[repo.Ledger](func(repokit.Queryer) repo.Ledger { return h.led })
	h.svc = New(&memDB{led: h.led}, binder, opt)
	return h
}

var widgets = domain.RepoKey{Owner: "acme", Repo: "widgets"}

func requester(id string) domain.Requester {
	return domain.Requester{UserID: id, Tier: domain.TierFree}
}
