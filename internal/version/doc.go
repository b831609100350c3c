// Package version reports the karaokepi build. Version and Commit are set
// with -ldflags at release time.
package version
