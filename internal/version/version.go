package version

import "fmt"

// Version is injected at build time:
// go build -ldflags "-X git.home.luguber.info/inful/patternpipe/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `patternpipe version`.
func String() string {
	return fmt.Sprintf("patternpipe %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
