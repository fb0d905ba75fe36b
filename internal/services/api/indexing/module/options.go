package module

import (
	"time"

	gh "quickgithub/internal/adapters/github"
	"quickgithub/internal/platform/config"
)

// Options controls indexing behavior, key lifetimes and the GitHub probe
type Options struct {
	MaxReposPerUser int

	LockTTL   time.Duration // admission lock
	StatusTTL time.Duration // status snapshot
	DocsTTL   time.Duration // docs cache entry

	PollInterval   time.Duration
	StreamTimeout  time.Duration
	RequestTimeout time.Duration

	// per-IP sliding window; a limit of 0 turns it off
	RateLimit  int
	RateWindow time.Duration

	JWTSecret string
	AdminIDs  []string

	GitHub gh.Options
}

// FromConfig reads INDEXING_*, AUTH_* and ADMIN_* values from the root config view
// An empty AUTH_JWT_SECRET only fails once the session verifier is built
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("INDEXING_")

	admins := cfg.MayCSV("ADMIN_USER_IDS", nil)
	if len(admins) == 0 {
		if one := cfg.MayString("ADMIN_USER_ID", ""); one != "" {
			admins = []string{one}
		}
	}

	return Options{
		MaxReposPerUser: ic.MayPositiveInt("MAX_REPOS_PER_USER", 1),
		LockTTL:         ic.MayDuration("LOCK_TTL", 300*time.Second),
		StatusTTL:       ic.MayDuration("STATUS_TTL", time.Hour),
		DocsTTL:         ic.MayDuration("DOCS_CACHE_TTL", 24*time.Hour),
		PollInterval:    ic.MayDuration("POLL_INTERVAL", 500*time.Millisecond),
		StreamTimeout:   ic.MayDuration("STREAM_TIMEOUT", 2*time.Minute),
		RequestTimeout:  ic.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimit:       ic.MayInt("RATE_LIMIT", 100),
		RateWindow:      ic.MayDuration("RATE_WINDOW", time.Minute),

		JWTSecret: cfg.Prefix("AUTH_").MayString("JWT_SECRET", ""),
		AdminIDs:  admins,

		GitHub: gh.Options{
			BaseURL:    ic.MayString("GH_BASE_URL", ""),
			UserAgent:  ic.MayString("GH_UA", "QuickGitHub"),
			TokensCSV:  ic.MayString("GH_TOKENS", ""),
			Timeout:    ic.MayDuration("GH_TIMEOUT", 5*time.Second),
			MaxRetries: ic.MayInt("GH_MAX_RETRIES", 2),
			RetryBase:  ic.MayDuration("GH_RETRY_BASE", 250*time.Millisecond),
		},
	}
}
