package versiongate

import (
	"context"
	"strings"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/registry"
	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/sysexec"
)

// Minimum is the sentinel for "installed version could not be determined".
var Minimum = goversion.Must(goversion.NewVersion("0.0.0"))

// Gate compares the installed app against the registry.
type Gate struct {
	Runner   sysexec.Runner
	Registry registry.LatestFetcher
	Store    state.Store
	// Binary is the app's own version reporter, e.g. ~/.venv-pikaraoke/bin/pikaraoke.
	Binary string
}

// Decision is the outcome of Check.
type Decision struct {
	Installed *goversion.Version
	Latest    *goversion.Version // nil when unknown
	Update    bool
}

// InstalledVersion asks the app for its version. Any failure yields Minimum.
func (g *Gate) InstalledVersion(ctx context.Context) *goversion.Version {
	if g.Runner == nil || g.Binary == "" {
		return Minimum
	}
	out, err := g.Runner.Output(ctx, sysexec.Command{Name: g.Binary, Args: []string{"--version"}})
	if err != nil {
		log.Debugf("installed version unavailable: %v", err)
		return Minimum
	}
	v, err := Parse(out)
	if err != nil {
		log.Debugf("unparseable installed version %q: %v", out, err)
		return Minimum
	}
	return v
}

// LatestVersion asks the registry for the newest release. Any failure yields
// nil ("unknown").
func (g *Gate) LatestVersion(ctx context.Context) *goversion.Version {
	if g.Registry == nil {
		return nil
	}
	raw, err := g.Registry.LatestVersion(ctx)
	if err != nil {
		log.Warnf("latest version lookup failed: %v", err)
		return nil
	}
	v, err := Parse(raw)
	if err != nil {
		log.Warnf("unparseable latest version %q: %v", raw, err)
		return nil
	}
	return v
}

// Check compares installed and latest and sets UpdatePending when a newer
// major.minor release exists. An unknown latest version never sets the flag.
func (g *Gate) Check(ctx context.Context) (Decision, error) {
	d := Decision{
		Installed: g.InstalledVersion(ctx),
		Latest:    g.LatestVersion(ctx),
	}
	d.Update = NeedsUpdate(d.Installed, d.Latest)
	if !d.Update {
		return d, nil
	}
	log.Infof("update available: %s -> %s", d.Installed, d.Latest)
	if g.Store == nil {
		return d, nil
	}
	return d, g.Store.Set(state.UpdatePending)
}

// NeedsUpdate reports whether latest is known and newer than installed in
// (major, minor). Patch releases never trigger an update.
func NeedsUpdate(installed, latest *goversion.Version) bool {
	if latest == nil {
		return false
	}
	if installed == nil {
		installed = Minimum
	}
	li, ll := majorMinor(installed), majorMinor(latest)
	if ll[0] != li[0] {
		return ll[0] > li[0]
	}
	return ll[1] > li[1]
}

// NeedsLegacyCleanup reports whether the recorded install predates threshold.
// Development channels are exempt. Without a record there is no version to
// compare, so the answer is false; callers look for leftover artifacts instead.
func NeedsLegacyCleanup(recorded state.InstallState, threshold, channel string) bool {
	if config.IsDevChannel(channel) || config.IsDevChannel(recorded.Channel) {
		return false
	}
	if recorded.InstallerVersion == "" {
		return false
	}
	limit, err := Parse(threshold)
	if err != nil {
		log.Warnf("invalid legacy threshold %q: %v", threshold, err)
		return false
	}
	current, err := Parse(recorded.InstallerVersion)
	if err != nil {
		log.Warnf("recorded installer version %q unparseable, treating as legacy", recorded.InstallerVersion)
		return true
	}
	return current.LessThan(limit)
}

// Parse accepts "1.2.3", "v1.2.3" or "pikaraoke 1.2.3".
func Parse(raw string) (*goversion.Version, error) {
	fields := strings.Fields(raw)
	candidate := raw
	if len(fields) > 0 {
		candidate = fields[len(fields)-1]
	}
	candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "v")
	return goversion.NewVersion(candidate)
}

func majorMinor(v *goversion.Version) [2]int {
	seg := v.Segments()
	var out [2]int
	for i := 0; i < len(out) && i < len(seg); i++ {
		out[i] = seg[i]
	}
	return out
}
