// Package cmd contains build-time variables injected via ldflags.
package cmd

import "fmt"

// Build-time variables set via ldflags.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit SHA of the build.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

// Summary returns a one-line description of the build.
func Summary() string {
	return fmt.Sprintf("mcphub %s (commit %s, built %s)", Version, Commit, Date)
}
