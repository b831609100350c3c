package uninstall

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/console"
	"github.com/five82/karaokepi/internal/install"
	"github.com/five82/karaokepi/internal/safefs"
	"github.com/five82/karaokepi/internal/state"
)

// DriverRemover tears down the optional hardware driver.
type DriverRemover interface {
	Remove(ctx context.Context) error
}

// Options are per-run switches.
type Options struct {
	DeskPi bool
}

// Uninstaller removes the installation.
type Uninstaller struct {
	Config   config.Config
	Fs       afero.Fs
	Remover  *safefs.Remover
	Store    state.Store
	Driver   DriverRemover
	Reporter *console.Reporter
}

// Report summarizes a run.
type Report struct {
	Results []safefs.Result
	// Warnings collects failures. None of them stop the uninstall.
	Warnings error
}

// Count returns how many results had outcome o.
func (r Report) Count(o safefs.Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

type group struct {
	title string
	paths []string
}

// targets lists every path uninstall tries to remove, grouped for display.
func targets(fs afero.Fs, cfg config.Config) []group {
	logs := []string{cfg.OutputLog, cfg.InstallLog, cfg.ToolLogPath()}
	logs = append(logs, rotatedBackups(fs, cfg.InstallLog)...)
	logs = append(logs, rotatedBackups(fs, cfg.ToolLogPath())...)
	return []group{
		{"virtual environment", []string{cfg.VenvDir}},
		{"scripts and shortcuts", []string{cfg.StartScript, cfg.DesktopShortcut, cfg.AliasesFile}},
		{"logs", logs},
		{"autostart", []string{cfg.AutostartFile, cfg.SystemAutostartFile}},
		{"legacy installs", install.LegacyTargets(fs, cfg)},
	}
}

// rotatedBackups finds the backups the rotating logger keeps next to path,
// named <base>-<timestamp><ext>, optionally gzipped.
func rotatedBackups(fs afero.Fs, path string) []string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	pattern := filepath.Join(filepath.Dir(path), base+"-*"+ext+"*")
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		log.Warnf("list log backups %s: %v", pattern, err)
		return nil
	}
	return matches
}

// Run removes every target. Failures are reported and counted, never fatal;
// only a cancelled ctx ends the run early.
func (u *Uninstaller) Run(ctx context.Context, opts Options) (Report, error) {
	u.defaults()
	var report Report

	u.Reporter.Header("Uninstalling PiKaraoke")
	for _, g := range targets(u.Fs, u.Config) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		u.Reporter.Step(g.title)
		for _, res := range u.Remover.RemoveAll(g.paths...) {
			report.Results = append(report.Results, res)
			u.describe(res)
			if res.Outcome == safefs.Failed {
				report.Warnings = multierror.Append(report.Warnings, res.Err)
			}
		}
	}

	u.Reporter.Step("shell profile")
	guard := install.ProfileGuard(u.Config.AliasesFile)
	for _, profile := range u.Config.ShellProfiles {
		changed, err := install.StripProfileLines(u.Fs, profile, guard)
		switch {
		case err != nil:
			report.Warnings = multierror.Append(report.Warnings, err)
			u.Reporter.Fail("%v", err)
		case changed:
			u.Reporter.OK("cleaned %s", profile)
		}
	}

	u.Reporter.Step("install record")
	if err := u.Store.Clear(); err != nil {
		report.Warnings = multierror.Append(report.Warnings, fmt.Errorf("clear install state: %w", err))
		u.Reporter.Fail("%v", err)
	} else {
		u.Reporter.OK("cleared")
	}

	if opts.DeskPi {
		u.Reporter.Step("DeskPi driver")
		if u.Driver == nil {
			u.Reporter.Warn("driver remover not configured")
		} else if err := u.Driver.Remove(ctx); err != nil {
			report.Warnings = multierror.Append(report.Warnings, err)
			u.Reporter.Warn("%v", err)
		} else {
			u.Reporter.OK("removed")
		}
	} else {
		u.Reporter.Skip("DeskPi driver preserved (use --deskpi to remove)")
	}

	log.WithFields(log.Fields{
		"removed":   report.Count(safefs.Removed),
		"protected": report.Count(safefs.Protected),
		"failed":    report.Count(safefs.Failed),
	}).Info("uninstall finished")
	u.Reporter.Summary("Cleanup complete, songs kept")
	return report, nil
}

func (u *Uninstaller) describe(res safefs.Result) {
	switch res.Outcome {
	case safefs.Removed:
		u.Reporter.OK("removed %s", res.Path)
	case safefs.Protected:
		u.Reporter.Skip("kept %s (contains %s)", res.Path, res.Reason)
	case safefs.Failed:
		u.Reporter.Fail("%v", res.Err)
	}
}

func (u *Uninstaller) defaults() {
	if u.Fs == nil {
		u.Fs = afero.NewOsFs()
	}
	if u.Remover == nil {
		u.Remover = safefs.NewRemover(u.Fs, u.Config.SongsMarker)
	}
	if u.Reporter == nil {
		u.Reporter = console.New(io.Discard)
	}
}
