// Package version holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/cbm-experiment/cbmcore/internal/version.Version=v0.3.0
package version

import "fmt"

var (
	// Version is the current release
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a one-line description for -version output.
func String(tool string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", tool, Version, GitSHA, BuildTime)
}
