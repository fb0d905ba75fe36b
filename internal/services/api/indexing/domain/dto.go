package domain

import (
	"encoding/json"
	"time"
)

// RepoPath is the owner/repo pair taken from the URL
type RepoPath struct {
	Owner string `json:"owner" validate:"required,slug" example:"vercel"`
	Repo  string `json:"repo"  validate:"required,slug" example:"next.js"`
}

// Key converts the path into a RepoKey
func (p RepoPath) Key() RepoKey { return RepoKey{Owner: p.Owner, Repo: p.Repo} }

// SubmitInput asks the dispatcher to start an indexing run
type SubmitInput struct {
	Key       RepoKey
	Requester Requester
}

// SubmitOutput is the 202 body
type SubmitOutput struct {
	RepoID    string `json:"repoId" example:"5b0f7c1e-3a52-4f4e-9a0f-2f4f1f1f7d10"`
	StatusURL string `json:"statusUrl" example:"/api/repos/vercel/next.js/status"`
}

// ConflictData rides in the 409 envelope so the caller can follow the live run
type ConflictData struct {
	RepoID    string `json:"repoId,omitempty" example:"5b0f7c1e-3a52-4f4e-9a0f-2f4f1f1f7d10"`
	StatusURL string `json:"statusUrl" example:"/api/repos/vercel/next.js/status"`
}

// Docs is the documentation lookup body and the cached copy
type Docs struct {
	ID             string          `json:"id" example:"5b0f7c1e-3a52-4f4e-9a0f-2f4f1f1f7d10"`
	Owner          string          `json:"owner" example:"vercel"`
	Name           string          `json:"name" example:"next.js"`
	FullName       string          `json:"fullName" example:"vercel/next.js"`
	Status         Status          `json:"status" example:"COMPLETED"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	IndexedWith    string          `json:"indexedWith,omitempty" example:"claude"`
	SystemOverview json.RawMessage `json:"systemOverview" swaggertype:"object"`
	Architecture   json.RawMessage `json:"architecture" swaggertype:"object"`
	TechStack      json.RawMessage `json:"techStack" swaggertype:"object"`
	KeyModules     json.RawMessage `json:"keyModules" swaggertype:"object"`
	EntryPoints    json.RawMessage `json:"entryPoints" swaggertype:"object"`
	Dependencies   json.RawMessage `json:"dependencies" swaggertype:"object"`
	RepoContext    string          `json:"repoContext,omitempty"`
}

// Stamp returns the ledger stamp the copy was built from
func (d Docs) Stamp() Stamp { return Stamp{Status: d.Status, UpdatedAt: d.UpdatedAt} }

// CheckQuery is the upstream existence check input
type CheckQuery struct {
	Owner string `json:"owner" validate:"required,slug" example:"vercel"`
	Repo  string `json:"repo"  validate:"required,slug" example:"next.js"`
}

// CheckOutput reports an existing repository
type CheckOutput struct {
	Exists bool `json:"exists" example:"true"`
}

// ResetLimitInput targets a user; empty means the caller
type ResetLimitInput struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,max=64" example:"clx3u2k0p0000abcd"`
}

// ResetLimitOutput confirms a reset
type ResetLimitOutput struct {
	OK      bool   `json:"ok" example:"true"`
	Message string `json:"message" example:"Repo limit reset to 0"`
}

// UpsertInput resets a repository row to a fresh PENDING run
type UpsertInput struct {
	Key         RepoKey
	ClaimedByID string
}

// AuditEvent is one analytics row describing an admission or stream outcome
type AuditEvent struct {
	At       time.Time
	Kind     string // submit | stream | reap
	FullName string
	UserID   string
	Outcome  string
	Status   Status
}

// ReapInput bounds one reaper sweep
type ReapInput struct {
	// Grace is how long a row may sit untouched before it is considered
	Grace time.Duration
	Limit int
}

// ReapResult summarizes a sweep
type ReapResult struct {
	Scanned int
	Reaped  int
	Skipped int
}
