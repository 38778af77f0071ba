// Package version carries build metadata set with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time: -ldflags "-X github.com/HerbHall/llmexperts/internal/version.Version=v0.3.0".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Short returns the version string alone.
func Short() string { return Version }

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("llmexperts %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}
