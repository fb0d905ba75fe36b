package repo

import (
	"context"
	"encoding/json"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/services/api/indexing/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IndexingLocks is the api-owned admission lock
type IndexingLocks interface {
	// Token returns the current holder token, if any
	Token(ctx context.Context, k domain.RepoKey) (string, bool, error)
	// Acquire sets the lock if absent and, in the same step, overwrites the snapshot with seed
	Acquire(ctx context.Context, k domain.RepoKey, seed domain.Event) (string, bool, error)
	// Release deletes the lock only while it still carries token
	Release(ctx context.Context, k domain.RepoKey, token string) (bool, error)
	// PutIfUnlocked overwrites the snapshot only while no lock exists, in one step
	PutIfUnlocked(ctx context.Context, k domain.RepoKey, ev domain.Event) (bool, error)
}

// WorkerLocks reads the worker-owned liveness lock; there is deliberately no write method
type WorkerLocks interface {
	Held(ctx context.Context, k domain.RepoKey) (bool, error)
}

// Snapshots is the live status written by the worker and seeded by the dispatcher
type Snapshots interface {
	Get(ctx context.Context, k domain.RepoKey) (domain.Event, bool, error)
	Put(ctx context.Context, k domain.RepoKey, ev domain.Event) error
	Delete(ctx context.Context, k domain.RepoKey) error
}

// DocsCache is the read-through copy of the documentation body
type DocsCache interface {
	Get(ctx context.Context, k domain.RepoKey) (domain.Docs, bool, error)
	Put(ctx context.Context, k domain.RepoKey, d domain.Docs) error
	Delete(ctx context.Context, k domain.RepoKey) error
}

// EphemeralOptions sets key lifetimes
type EphemeralOptions struct {
	LockTTL   time.Duration
	StatusTTL time.Duration
	DocsTTL   time.Duration
}

// Ephemeral groups the redis-backed stores
type Ephemeral struct {
	Indexing  *IndexingLock
	Worker    *WorkerLock
	Snapshots *SnapshotStore
	Docs      *DocsStore
}

// NewEphemeral builds every redis store over one client
func NewEphemeral(rds redis.Cmdable, o EphemeralOptions) Ephemeral {
	if rds == nil {
		panic("indexing: ephemeral store requires redis")
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 300 * time.Second
	}
	if o.StatusTTL <= 0 {
		o.StatusTTL = time.Hour
	}
	if o.DocsTTL <= 0 {
		o.DocsTTL = 24 * time.Hour
	}
	return Ephemeral{
		Indexing:  &IndexingLock{rds: rds, ttl: o.LockTTL, statusTTL: o.StatusTTL, token: uuid.NewString},
		Worker:    &WorkerLock{rds: rds},
		Snapshots: &SnapshotStore{rds: rds, ttl: o.StatusTTL},
		Docs:      &DocsStore{rds: rds, ttl: o.DocsTTL},
	}
}

// compareAndDelete removes KEYS[1] only when it still holds ARGV[1]
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// acquireAndSeed sets KEYS[1] NX and, only when that succeeded, writes the seed snapshot to KEYS[2]
var acquireAndSeed = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[4])
	return 1
end
return 0
`)

// putUnlocked writes ARGV[1] to KEYS[2] only while KEYS[1] is absent
var putUnlocked = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// IndexingLock implements IndexingLocks with SET NX and a token
// A held lock is always accompanied by a snapshot written in the same script
type IndexingLock struct {
	rds       redis.Cmdable
	ttl       time.Duration
	statusTTL time.Duration
	token     func() string
}

// Token implements IndexingLocks
func (l *IndexingLock) Token(ctx context.Context, k domain.RepoKey) (string, bool, error) {
	v, err := l.rds.Get(ctx, IndexingLockKey(k)).Result()
	if perr.IsRedisNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.FromRedis(err, "read indexing lock")
	}
	return v, true, nil
}

// Acquire implements IndexingLocks
func (l *IndexingLock) Acquire(ctx context.Context, k domain.RepoKey, seed domain.Event) (string, bool, error) {
	b, err := json.Marshal(seed)
	if err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeJSON, "encode seed for %s", k.FullName())
	}
	tok := l.token()
	keys := []string{IndexingLockKey(k), StatusKey(k)}
	n, err := acquireAndSeed.Run(ctx, l.rds, keys, tok, l.ttl.Milliseconds(), b, l.statusTTL.Milliseconds()).Int()
	if err != nil {
		return "", false, perr.FromRedis(err, "acquire indexing lock")
	}
	if n == 0 {
		return "", false, nil
	}
	return tok, true, nil
}

// Release implements IndexingLocks
func (l *IndexingLock) Release(ctx context.Context, k domain.RepoKey, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := compareAndDelete.Run(ctx, l.rds, []string{IndexingLockKey(k)}, token).Int()
	if err != nil {
		return false, perr.FromRedis(err, "release indexing lock")
	}
	return n > 0, nil
}

// PutIfUnlocked implements IndexingLocks
func (l *IndexingLock) PutIfUnlocked(ctx context.Context, k domain.RepoKey, ev domain.Event) (bool, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeJSON, "encode snapshot for %s", k.FullName())
	}
	keys := []string{IndexingLockKey(k), StatusKey(k)}
	n, err := putUnlocked.Run(ctx, l.rds, keys, b, l.statusTTL.Milliseconds()).Int()
	if err != nil {
		return false, perr.FromRedis(err, "write unlocked snapshot")
	}
	return n > 0, nil
}

// WorkerLock implements WorkerLocks
type WorkerLock struct{ rds redis.Cmdable }

// Held implements WorkerLocks
func (l *WorkerLock) Held(ctx context.Context, k domain.RepoKey) (bool, error) {
	n, err := l.rds.Exists(ctx, WorkerLockKey(k)).Result()
	if err != nil {
		return false, perr.FromRedis(err, "read worker lock")
	}
	return n > 0, nil
}

// SnapshotStore implements Snapshots
type SnapshotStore struct {
	rds redis.Cmdable
	ttl time.Duration
}

// Get implements Snapshots
func (s *SnapshotStore) Get(ctx context.Context, k domain.RepoKey) (domain.Event, bool, error) {
	var ev domain.Event
	ok, err := getJSON(ctx, s.rds, StatusKey(k), &ev)
	return ev, ok, err
}

// Put implements Snapshots; it overwrites whatever the last run left
func (s *SnapshotStore) Put(ctx context.Context, k domain.RepoKey, ev domain.Event) error {
	return putJSON(ctx, s.rds, StatusKey(k), ev, s.ttl)
}

// Delete implements Snapshots
func (s *SnapshotStore) Delete(ctx context.Context, k domain.RepoKey) error {
	return perr.FromRedis(s.rds.Del(ctx, StatusKey(k)).Err(), "delete status")
}

// DocsStore implements DocsCache
type DocsStore struct {
	rds redis.Cmdable
	ttl time.Duration
}

// Get implements DocsCache
func (s *DocsStore) Get(ctx context.Context, k domain.RepoKey) (domain.Docs, bool, error) {
	var d domain.Docs
	ok, err := getJSON(ctx, s.rds, DocsKey(k), &d)
	return d, ok, err
}

// Put implements DocsCache
func (s *DocsStore) Put(ctx context.Context, k domain.RepoKey, d domain.Docs) error {
	return putJSON(ctx, s.rds, DocsKey(k), d, s.ttl)
}

// Delete implements DocsCache
func (s *DocsStore) Delete(ctx context.Context, k domain.RepoKey) error {
	return perr.FromRedis(s.rds.Del(ctx, DocsKey(k)).Err(), "delete docs cache")
}

// getJSON treats a missing key as (false, nil) and an undecodable value as an error
func getJSON(ctx context.Context, rds redis.Cmdable, key string, dst any) (bool, error) {
	b, err := rds.Get(ctx, key).Bytes()
	if perr.IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, perr.FromRedis(err, "read "+key)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeJSON, "decode %s", key)
	}
	return true, nil
}

func putJSON(ctx context.Context, rds redis.Cmdable, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode %s", key)
	}
	return perr.FromRedis(rds.Set(ctx, key, b, ttl).Err(), "write "+key)
}
