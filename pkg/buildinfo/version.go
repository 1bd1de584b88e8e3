// Package buildinfo carries version metadata stamped at build time:
//
//	go build -ldflags "-X github.com/matzehuels/snapstack/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/snapstack/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/snapstack/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// Stamped via ldflags; the defaults identify an untagged dev build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information as a multi-line summary.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template used by the root cobra command.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
