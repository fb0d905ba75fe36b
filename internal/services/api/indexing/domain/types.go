// Package domain holds the indexing lifecycle types shared by the dispatcher, reporter and reconciler
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Status is a repository lifecycle state, or one of the stream-only escape states
type Status string

const (
	// StatusPending means accepted and queued, no worker has reported yet
	StatusPending Status = "PENDING"
	// StatusFetching means the worker is cloning
	StatusFetching Status = "FETCHING"
	// StatusParsing means the worker is walking the tree
	StatusParsing Status = "PARSING"
	// StatusAnalyzing means the worker is generating docs
	StatusAnalyzing Status = "ANALYZING"
	// StatusCompleted is terminal; docs exist
	StatusCompleted Status = "COMPLETED"
	// StatusFailed is terminal; errorMessage says why
	StatusFailed Status = "FAILED"

	// StatusStalled is emitted when the ledger says in progress but no worker holds the liveness lock
	StatusStalled Status = "STALLED"
	// StatusNotFound is emitted when neither store knows the repository
	StatusNotFound Status = "NOT_FOUND"
	// StatusTimeout ends a stream that outlived its budget
	StatusTimeout Status = "TIMEOUT"
	// StatusError reports a failed poll; the stream keeps going
	StatusError Status = "ERROR"
)

// InProgress reports PENDING, FETCHING, PARSING and ANALYZING
func (s Status) InProgress() bool {
	switch s {
	case StatusPending, StatusFetching, StatusParsing, StatusAnalyzing:
		return true
	}
	return false
}

// Terminal reports COMPLETED and FAILED
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Escape reports the stream-only states that sit outside the lifecycle order
func (s Status) Escape() bool {
	switch s {
	case StatusStalled, StatusNotFound, StatusTimeout, StatusError:
		return true
	}
	return false
}

// EndsStream reports whether a stream closes after emitting s
func (s Status) EndsStream() bool {
	return s.Terminal() || (s.Escape() && s != StatusError)
}

// Rank orders lifecycle states; unknown and escape states are -1
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusFetching:
		return 1
	case StatusParsing:
		return 2
	case StatusAnalyzing:
		return 3
	case StatusCompleted, StatusFailed:
		return 4
	}
	return -1
}

// Tier is the requester's billing tier
type Tier string

// Tiers
const (
	TierFree      Tier = "FREE"
	TierPro       Tier = "PRO"
	TierUnlimited Tier = "UNLIMITED"
)

// ParseTier maps a claim to a Tier; anything unknown is FREE
func ParseTier(s string) Tier {
	switch t := Tier(strings.ToUpper(strings.TrimSpace(s))); t {
	case TierPro, TierUnlimited:
		return t
	}
	return TierFree
}

// AgentSDK picks the worker engine for a tier
func (t Tier) AgentSDK() string {
	if t == TierFree {
		return "openai"
	}
	return "claude"
}

var slugRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,99}$`)

// ValidSlug reports whether s is a GitHub owner or repository name
func ValidSlug(s string) bool { return slugRe.MatchString(s) }

// RepoKey identifies a repository; comparison is case sensitive
type RepoKey struct {
	Owner string
	Repo  string
}

// Valid reports whether both halves are slugs
func (k RepoKey) Valid() bool { return ValidSlug(k.Owner) && ValidSlug(k.Repo) }

// FullName is owner/repo
func (k RepoKey) FullName() string { return k.Owner + "/" + k.Repo }

// StatusURL is where a caller follows the run
func (k RepoKey) StatusURL() string { return "/api/repos/" + k.FullName() + "/status" }

// Event is one status frame, shared by the worker snapshot and the stream
type Event struct {
	Status   Status `json:"status" example:"ANALYZING"`
	Progress int    `json:"progress" example:"60"`
	Message  string `json:"message" example:"Generating architecture overview"`
}

// Repo is a ledger row
type Repo struct {
	ID           string
	Owner        string
	Name         string
	FullName     string
	Status       Status
	Progress     int
	ErrorMessage string
	ClaimedByID  string
	IndexedWith  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key returns the repository identity
func (r Repo) Key() RepoKey { return RepoKey{Owner: r.Owner, Repo: r.Name} }

// Event renders the ledger row as a stream frame
func (r Repo) Event() Event {
	return Event{Status: r.Status, Progress: r.Progress, Message: r.ErrorMessage}
}

// User is the quota-bearing account row
type User struct {
	ID           string
	ReposClaimed int
	Tier         Tier
}

// Requester is the verified caller of a submission
// Built by the transport from the session token; the service never reads identity from ambient state
type Requester struct {
	UserID string
	Tier   Tier
	Admin  bool
}

// BypassesQuota is the single quota rule: admins and unlimited accounts are never limited
func (r Requester) BypassesQuota() bool { return r.Admin || r.Tier == TierUnlimited }

// Stamp is the lightweight ledger view that validates a cached docs copy
type Stamp struct {
	Status    Status
	UpdatedAt time.Time
}
