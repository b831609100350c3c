package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/console"
	"github.com/five82/karaokepi/internal/driver"
	"github.com/five82/karaokepi/internal/install"
	"github.com/five82/karaokepi/internal/launcher"
	"github.com/five82/karaokepi/internal/logging"
	"github.com/five82/karaokepi/internal/notify"
	"github.com/five82/karaokepi/internal/platform"
	"github.com/five82/karaokepi/internal/probe"
	"github.com/five82/karaokepi/internal/registry"
	"github.com/five82/karaokepi/internal/safefs"
	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/supervisor"
	"github.com/five82/karaokepi/internal/sysexec"
	"github.com/five82/karaokepi/internal/uninstall"
	"github.com/five82/karaokepi/internal/version"
	"github.com/five82/karaokepi/internal/versiongate"
)

// Options are the global command-line settings.
type Options struct {
	ConfigPath string
	LogLevel   string
	Out        io.Writer
}

// ErrLaunchAborted is returned when no network was found and the app was not
// started.
var ErrLaunchAborted = errors.New("no network connection, launch aborted")

// env holds the components shared by every command.
type env struct {
	cfg    config.Config
	fs     afero.Fs
	runner *sysexec.Exec
	store  *state.FileStore
	gate   *versiongate.Gate
	out    io.Writer
}

// logMode selects where a command's log entries go.
type logMode int

const (
	// toolLog writes to the rotating tool log and stderr.
	toolLog logMode = iota
	// installLog writes to the install log only; the console reporter owns
	// the terminal.
	installLog
	// reportOnly discards entries; the console report is the record. Used by
	// uninstall, which deletes every log file karaokepi writes.
	reportOnly
)

func (m logMode) options(cfg config.Config, level string) logging.Options {
	switch m {
	case installLog:
		return logging.Options{Level: level, Path: cfg.InstallLog}
	case reportOnly:
		return logging.Options{Level: level, Quiet: true}
	default:
		return logging.Options{Level: level, Path: cfg.ToolLogPath(), Console: true}
	}
}

// setup loads config and logging and builds the shared components.
func setup(opts Options, mode logMode) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logOut, err := logging.Init(mode.options(cfg, opts.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	log.WithFields(log.Fields{"version": version.String(), "config": opts.ConfigPath}).Debug("karaokepi starting")

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	runner := &sysexec.Exec{Log: logOut}
	if mode != toolLog {
		runner.Stdout = io.Discard
	}

	fs := afero.NewOsFs()
	store := state.NewFileStore(fs, cfg.StateFile, map[state.Marker]string{
		state.UpdatePending: cfg.UpdateFlag,
	})

	e := &env{cfg: cfg, fs: fs, runner: runner, store: store, out: out}
	e.gate = &versiongate.Gate{
		Runner: runner,
		Store:  store,
		Binary: cfg.AppExecutable(),
	}
	if client, err := registry.NewClient(cfg.RegistryURL); err != nil {
		log.WithError(err).Warn("registry disabled")
	} else {
		e.gate.Registry = client
	}
	return e, nil
}

// updateCheckTimeout bounds the registry lookup that follows a launch.
const updateCheckTimeout = 20 * time.Second

// launchRunner is the part of the supervisor RunLaunch needs.
type launchRunner interface {
	Run(ctx context.Context) (supervisor.Result, error)
}

// updateChecker is the part of the version gate RunLaunch needs.
type updateChecker interface {
	Check(ctx context.Context) (versiongate.Decision, error)
}

// RunLaunch waits for the network and starts the app. It is what the
// autostart entry runs at login.
func RunLaunch(ctx context.Context, opts Options) error {
	e, err := setup(opts, toolLog)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(notify.Select(e.cfg.Notify.Backend, e.runner), e.cfg.Notify.Title)
	defer dispatcher.Close()

	sup := &supervisor.Supervisor{
		Probe:    probe.FromAddress(e.cfg.Launch.ProbeAddress, e.cfg.Launch.ProbeTimeout),
		Notifier: dispatcher,
		Launcher: &launcher.Process{
			Program: e.cfg.Package,
			BinDir:  e.cfg.VenvBin(),
			LogPath: e.cfg.OutputLog,
		},
		Timing: supervisor.Timing{
			CheckInterval: e.cfg.Launch.CheckInterval,
			InitialWait:   e.cfg.Launch.InitialWait,
			ExtendedWait:  e.cfg.Launch.ExtendedWait,
		},
		AppName: e.cfg.Notify.Title,
	}
	return launchThenCheck(ctx, sup, e.gate, e.cfg.Package)
}

// launchThenCheck starts polling immediately and looks for updates only once
// the app is running, so a slow registry never delays the first probe.
func launchThenCheck(ctx context.Context, sup launchRunner, gate updateChecker, pkg string) error {
	res, err := sup.Run(ctx)
	if err != nil {
		return err
	}
	if res.State == supervisor.Failed {
		return ErrLaunchAborted
	}

	checkCtx, cancel := context.WithTimeout(ctx, updateCheckTimeout)
	defer cancel()
	if d, err := gate.Check(checkCtx); err != nil {
		log.WithError(err).Warn("update check failed")
	} else if d.Update {
		log.Infof("newer %s available (%s), it will be installed on the next install run", pkg, d.Latest)
	}
	return nil
}

// RunInstall installs or upgrades PiKaraoke.
func RunInstall(ctx context.Context, opts Options, deskpi bool) error {
	e, err := setup(opts, installLog)
	if err != nil {
		return err
	}
	exe, err := executable()
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}

	remover := safefs.NewRemover(e.fs, e.cfg.SongsMarker)
	in := &install.Installer{
		Config:     e.cfg,
		Fs:         e.fs,
		Runner:     e.runner,
		Store:      e.store,
		Gate:       e.gate,
		Platform:   &platform.Checker{Fs: e.fs},
		Driver:     &driver.Manager{Config: e.cfg.Driver, Runner: e.runner, Fs: e.fs},
		Remover:    remover,
		Reporter:   console.New(e.out),
		Executable: exe,
		Home:       home,
		Version:    version.Version,
		Commit:     version.Revision(),
	}
	report, err := in.Run(ctx, install.Options{DeskPi: deskpi})
	if report.Warnings != nil {
		log.WithError(report.Warnings).Warn("install finished with warnings")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "\nPiKaraoke starts automatically at login. Start it now with: %s\n", e.cfg.StartScript)
	fmt.Fprintf(e.out, "Install log: %s\n", e.cfg.InstallLog)
	return nil
}

// RunUninstall removes PiKaraoke while keeping the song library.
func RunUninstall(ctx context.Context, opts Options, deskpi bool) error {
	e, err := setup(opts, reportOnly)
	if err != nil {
		return err
	}
	u := &uninstall.Uninstaller{
		Config:   e.cfg,
		Fs:       e.fs,
		Remover:  safefs.NewRemover(e.fs, e.cfg.SongsMarker),
		Store:    e.store,
		Driver:   &driver.Manager{Config: e.cfg.Driver, Runner: e.runner, Fs: e.fs},
		Reporter: console.New(e.out),
	}
	report, err := u.Run(ctx, uninstall.Options{DeskPi: deskpi})
	if err != nil {
		return err
	}
	if report.Warnings != nil {
		log.WithError(report.Warnings).Warn("uninstall finished with warnings")
	}
	return nil
}

// RunCheckUpdate compares installed and latest versions and sets the update
// flag when a newer minor release exists.
func RunCheckUpdate(ctx context.Context, opts Options) error {
	e, err := setup(opts, toolLog)
	if err != nil {
		return err
	}
	d, err := e.gate.Check(ctx)
	if err != nil {
		return fmt.Errorf("set update flag: %w", err)
	}
	latest := "unknown"
	if d.Latest != nil {
		latest = d.Latest.String()
	}
	fmt.Fprintf(e.out, "installed: %s\nlatest:    %s\n", d.Installed, latest)
	if d.Update {
		fmt.Fprintf(e.out, "update pending, run `karaokepi install` to apply it\n")
	}
	return nil
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate karaokepi binary: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
