// Package version holds build metadata stamped in via -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the version with the commit SHA, e.g. "dev (unknown)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitSHA)
}
