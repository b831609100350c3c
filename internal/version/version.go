package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time via ldflags
var (
	Version = "0.4.0"
	Commit  = "unknown"
)

// String returns the human-readable build identifier.
func String() string {
	return fmt.Sprintf("%s (commit: %s)", Version, shortCommit())
}

// Revision returns the build commit, falling back to the VCS stamp embedded by
// the Go toolchain.
func Revision() string {
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return Commit
}

func shortCommit() string {
	c := Revision()
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
