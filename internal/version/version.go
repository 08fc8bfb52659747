// Package version exposes build metadata stamped in via ldflags:
//
//	go build -ldflags "-X github.com/tickstream/tickstream/internal/version.Version=0.2.0 \
//	                   -X github.com/tickstream/tickstream/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/tickstream/tickstream/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the short git commit hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String renders the full build identifier for startup logs.
func String() string {
	return fmt.Sprintf("%s (%s) built %s", Version, Commit, BuildTime)
}
