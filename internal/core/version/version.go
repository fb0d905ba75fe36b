// Package version reports the build stamp of the running binary
package version

// BuildInfo holds version information about the service build.
type BuildInfo struct {
	Service string `json:"service" example:"quickgithub-api"`
	Version string `json:"version" example:"v0.3.1"`
	Commit  string `json:"commit" example:"9f2c1e4"`
	Date    string `json:"date" example:"2026-10-01"`
}

// Info returns the build information stamped at link time:
// -ldflags "-X 'quickgithub/internal/core/version.version=v0.3.1' -X 'quickgithub/internal/core/version.commit=9f2c1e4'"
func Info() BuildInfo { return For(service) }

// For returns the build information under another service name (the reaper binary shares the stamp)
func For(svc string) BuildInfo {
	return BuildInfo{
		Service: svc,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	service = "quickgithub-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
