package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags server-side query logs with process role, commit and host
func BuildClientInfo(role string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	type product = struct{ Name, Version string }
	return clickhouse.ClientInfo{
		Products: []product{
			{Name: "quickgithub", Version: strings.TrimSpace(role)},
			{Name: "go", Version: runtime.Version()},
			{Name: "commit", Version: shortSHA()},
			{Name: "host", Version: strings.TrimSpace(host)},
		},
	}
}

func shortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
