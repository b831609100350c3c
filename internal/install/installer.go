package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/console"
	"github.com/five82/karaokepi/internal/platform"
	"github.com/five82/karaokepi/internal/safefs"
	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/sysexec"
	"github.com/five82/karaokepi/internal/versiongate"
)

// StepError is returned when a required step fails. The install stops there.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("install step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrSkipped marks a step that had nothing to do.
var ErrSkipped = errors.New("skipped")

// PlatformChecker reports platform mismatches as warnings.
type PlatformChecker interface {
	Check(ctx context.Context) (platform.Info, error)
}

// DriverInstaller installs the optional hardware driver.
type DriverInstaller interface {
	Install(ctx context.Context) error
}

// Options are per-run switches.
type Options struct {
	DeskPi bool
}

// Installer converges the machine to the installed state. Every step is safe
// to repeat.
type Installer struct {
	Config   config.Config
	Fs       afero.Fs
	Runner   sysexec.Runner
	Store    state.Store
	Gate     *versiongate.Gate
	Platform PlatformChecker
	Driver   DriverInstaller
	Remover  *safefs.Remover
	Reporter *console.Reporter

	// Executable is the karaokepi binary the generated assets point at.
	Executable string
	Home       string
	Version    string
	Commit     string
	Now        func() time.Time
}

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusSkipped StepStatus = "skipped"
	StatusWarning StepStatus = "warning"
	StatusFailed  StepStatus = "failed"
)

// StepResult records one step.
type StepResult struct {
	Name   string
	Status StepStatus
	Err    error
}

// Report summarizes a run.
type Report struct {
	Steps []StepResult
	// Warnings aggregates every optional-step failure.
	Warnings error
}

type step struct {
	name     string
	required bool
	run      func(ctx context.Context) error
}

// Run executes every step in order. Optional failures are collected in the
// report; the first required failure ends the run with a *StepError.
func (in *Installer) Run(ctx context.Context, opts Options) (Report, error) {
	in.defaults()
	var report Report

	in.Reporter.Header(fmt.Sprintf("Installing %s (karaokepi %s)", in.Config.Package, in.Version))
	for _, s := range in.steps(opts) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		in.Reporter.Step(s.name)
		entry := log.WithField("step", s.name)
		entry.Info("step started")

		err := s.run(ctx)
		res := StepResult{Name: s.name, Err: err}
		switch {
		case err == nil:
			res.Status = StatusOK
			in.Reporter.OK("done")
			entry.Info("step finished")
		case errors.Is(err, ErrSkipped):
			res.Status = StatusSkipped
			res.Err = nil
			reason := skipReason(err)
			in.Reporter.Skip("%s", reason)
			entry.Info(reason)
		case s.required:
			res.Status = StatusFailed
			report.Steps = append(report.Steps, res)
			in.Reporter.Fail("%v", err)
			entry.WithError(err).Error("required step failed")
			return report, &StepError{Step: s.name, Err: err}
		default:
			res.Status = StatusWarning
			report.Warnings = multierror.Append(report.Warnings, fmt.Errorf("%s: %w", s.name, err))
			for _, w := range flatten(err) {
				in.Reporter.Warn("%v", w)
			}
			entry.WithError(err).Warn("optional step failed, continuing")
		}
		report.Steps = append(report.Steps, res)
	}
	in.Reporter.Summary("Install complete")
	return report, nil
}

func (in *Installer) steps(opts Options) []step {
	return []step{
		{name: "platform check", run: in.checkPlatform},
		{name: "legacy cleanup", run: in.cleanupLegacy},
		{name: "system packages", run: in.installSystemPackages},
		{name: "python environment", required: true, run: in.provisionEnvironment},
		{name: "DeskPi driver", run: func(ctx context.Context) error { return in.installDriver(ctx, opts) }},
		{name: "assets", required: true, run: in.placeAssets},
		{name: "autostart", required: true, run: in.registerAutostart},
		{name: "shell profile", required: true, run: in.augmentProfiles},
		{name: "record state", required: true, run: in.recordState},
		{name: "update check", run: in.checkForUpdate},
		{name: "pending reinstall", required: true, run: in.consumeUpdateFlag},
	}
}

func (in *Installer) checkPlatform(ctx context.Context) error {
	if in.Platform == nil {
		return fmt.Errorf("%w: no platform checker", ErrSkipped)
	}
	info, err := in.Platform.Check(ctx)
	log.WithFields(log.Fields{"hostname": info.Hostname, "codename": info.Codename, "arch": info.Arch}).Debug("platform detected")
	return err
}

func (in *Installer) cleanupLegacy(context.Context) error {
	recorded, err := in.Store.Load()
	if err != nil {
		return fmt.Errorf("load install state: %w", err)
	}
	targets := LegacyTargets(in.Fs, in.Config)
	if recorded.IsZero() {
		// Installs that predate the record left no state behind; only their
		// own artifacts identify them.
		if config.IsDevChannel(in.Config.Channel) || !existingAny(in.Fs, targets) {
			return fmt.Errorf("%w: no legacy install found", ErrSkipped)
		}
		log.Info("unrecorded earlier install found, removing legacy artifacts")
	} else {
		if !versiongate.NeedsLegacyCleanup(recorded, in.Config.LegacyThreshold, in.Config.Channel) {
			return fmt.Errorf("%w: installer %s is current", ErrSkipped, recorded.InstallerVersion)
		}
		log.Infof("previous installer %q predates %s, removing legacy artifacts", recorded.InstallerVersion, in.Config.LegacyThreshold)
	}

	var errs error
	for _, res := range in.Remover.RemoveAll(targets...) {
		switch res.Outcome {
		case safefs.Failed:
			errs = multierror.Append(errs, res.Err)
		case safefs.Protected:
			in.Reporter.Info("  kept %s (song library)", res.Path)
		}
	}
	return errs
}

func (in *Installer) installSystemPackages(ctx context.Context) error {
	if len(in.Config.SystemPackages) == 0 {
		return fmt.Errorf("%w: no packages configured", ErrSkipped)
	}
	if _, err := in.Runner.LookPath("apt-get"); err != nil {
		return fmt.Errorf("apt-get not available, install %v manually: %w", in.Config.SystemPackages, err)
	}
	if err := in.Runner.Run(ctx, sysexec.Command{Name: "sudo", Args: []string{"apt-get", "update"}}); err != nil {
		return fmt.Errorf("apt-get update: %w", err)
	}
	args := append([]string{"apt-get", "install", "-y"}, in.Config.SystemPackages...)
	if err := in.Runner.Run(ctx, sysexec.Command{Name: "sudo", Args: args}); err != nil {
		return fmt.Errorf("apt-get install: %w", err)
	}
	return nil
}

func (in *Installer) provisionEnvironment(ctx context.Context) error {
	exists, err := afero.DirExists(in.Fs, in.Config.VenvDir)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", in.Config.VenvDir, err)
	}
	if !exists {
		log.Infof("creating virtual environment at %s", in.Config.VenvDir)
		if err := in.Runner.Run(ctx, sysexec.Command{Name: "python3", Args: []string{"-m", "venv", in.Config.VenvDir}}); err != nil {
			return fmt.Errorf("create venv: %w", err)
		}
	}
	pip := in.pip()
	if err := in.Runner.Run(ctx, sysexec.Command{Name: pip, Args: []string{"install", "--upgrade", "pip"}}); err != nil {
		return fmt.Errorf("upgrade pip: %w", err)
	}
	if err := in.Runner.Run(ctx, sysexec.Command{Name: pip, Args: []string{"install", "--upgrade", in.Config.Package}}); err != nil {
		return fmt.Errorf("install %s: %w", in.Config.Package, err)
	}
	return nil
}

func (in *Installer) installDriver(ctx context.Context, opts Options) error {
	if !opts.DeskPi {
		return fmt.Errorf("%w: use --deskpi to install the DeskPi driver", ErrSkipped)
	}
	if in.Driver == nil {
		return errors.New("driver installer not configured")
	}
	return in.Driver.Install(ctx)
}

func (in *Installer) placeAssets(context.Context) error {
	data := in.assetData()
	for _, a := range Manifest(in.Config) {
		if err := a.Place(in.Fs, data); err != nil {
			return err
		}
		log.WithField("dest", a.Dest).Infof("placed %s", a.Name)
	}
	return nil
}

func (in *Installer) registerAutostart(context.Context) error {
	a := AutostartAsset(in.Config)
	if err := a.Place(in.Fs, in.assetData()); err != nil {
		return err
	}
	log.WithField("dest", a.Dest).Info("autostart entry written")
	return nil
}

func (in *Installer) augmentProfiles(context.Context) error {
	line := ProfileLine(in.Config.AliasesFile, in.Home)
	guard := ProfileGuard(in.Config.AliasesFile)
	for _, profile := range in.Config.ShellProfiles {
		changed, err := EnsureProfileLine(in.Fs, profile, line, guard)
		if err != nil {
			return err
		}
		if changed {
			log.Infof("added alias sourcing to %s", profile)
		} else {
			log.Debugf("%s already sources %s", profile, guard)
		}
	}
	return nil
}

func (in *Installer) recordState(ctx context.Context) error {
	appVersion := versiongate.Minimum
	if in.Gate != nil {
		appVersion = in.Gate.InstalledVersion(ctx)
	}
	st := state.InstallState{
		InstallerVersion: in.Version,
		AppVersion:       appVersion.String(),
		Commit:           in.Commit,
		Channel:          in.Config.Channel,
		UpdatedAt:        in.Now().UTC(),
	}
	if err := in.Store.Save(st); err != nil {
		return err
	}
	log.WithFields(log.Fields{"installer": st.InstallerVersion, "app": st.AppVersion}).Info("install state recorded")
	return nil
}

func (in *Installer) checkForUpdate(ctx context.Context) error {
	if in.Gate == nil {
		return fmt.Errorf("%w: version gate not configured", ErrSkipped)
	}
	d, err := in.Gate.Check(ctx)
	if err != nil {
		return err
	}
	if d.Latest == nil {
		return fmt.Errorf("latest %s version unknown", in.Config.Package)
	}
	if !d.Update {
		return fmt.Errorf("%w: %s %s is current", ErrSkipped, in.Config.Package, d.Installed)
	}
	return nil
}

func (in *Installer) consumeUpdateFlag(ctx context.Context) error {
	present, err := in.Store.Consume(state.UpdatePending, func() error {
		log.Infof("update pending, force-reinstalling %s", in.Config.Package)
		return in.Runner.Run(ctx, sysexec.Command{
			Name: in.pip(),
			Args: []string{"install", "--force-reinstall", "--no-cache-dir", in.Config.Package},
		})
	})
	if err != nil {
		return fmt.Errorf("forced reinstall: %w", err)
	}
	if !present {
		return fmt.Errorf("%w: no update pending", ErrSkipped)
	}
	return nil
}

func (in *Installer) pip() string {
	return filepath.Join(in.Config.VenvBin(), "pip")
}

func (in *Installer) assetData() AssetData {
	return AssetData{
		AppName:     "PiKaraoke",
		Executable:  in.Executable,
		StartScript: in.Config.StartScript,
		VenvBin:     in.Config.VenvBin(),
	}
}

func (in *Installer) defaults() {
	if in.Fs == nil {
		in.Fs = afero.NewOsFs()
	}
	if in.Reporter == nil {
		in.Reporter = console.New(io.Discard)
	}
	if in.Remover == nil {
		in.Remover = safefs.NewRemover(in.Fs, in.Config.SongsMarker)
	}
	if in.Now == nil {
		in.Now = time.Now
	}
}

func skipReason(err error) string {
	return strings.TrimPrefix(err.Error(), ErrSkipped.Error()+": ")
}

func flatten(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}
