// Package version holds build metadata. Release builds stamp the variables
// with -ldflags "-X github.com/Sumatoshi-tech/boxtree/pkg/version.Version=...".
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Build metadata.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills unstamped fields from the module build info, which
// is available for binaries installed with go install.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata as "<version> (commit: <commit>, built: <date>)".
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
