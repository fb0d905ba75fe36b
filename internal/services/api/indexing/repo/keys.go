package repo

import "quickgithub/internal/services/api/indexing/domain"

// Redis key contract shared with the documentation worker.
// The worker writes StatusKey while it runs and owns WorkerLockKey (SET NX, 35m TTL, deleted on exit);
// the api owns IndexingLockKey and DocsKey and never touches WorkerLockKey.

// StatusKey holds the JSON snapshot {status, progress, message}
func StatusKey(k domain.RepoKey) string { return "indexing:" + k.FullName() + ":status" }

// IndexingLockKey is the admission lock taken at submission
func IndexingLockKey(k domain.RepoKey) string { return "indexing:" + k.FullName() + ":lock" }

// WorkerLockKey is the worker's liveness lock
func WorkerLockKey(k domain.RepoKey) string { return "lock:indexing:" + k.FullName() }

// DocsKey holds the cached documentation body
func DocsKey(k domain.RepoKey) string { return "docs:" + k.FullName() + ":latest" }
