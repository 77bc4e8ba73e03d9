// Package version carries build metadata stamped in with -ldflags -X.
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

// String formats the build metadata for the -version flag and reports.
func String() string {
	return fmt.Sprintf("rate-analyzer %s (%s, built %s)", Version, GitSHA, BuildTime)
}
