package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/launcher"
	"github.com/five82/karaokepi/internal/logtail"
	"github.com/five82/karaokepi/internal/state"
	"github.com/five82/karaokepi/internal/ui"
	"github.com/five82/karaokepi/internal/versiongate"
)

// Status prints what is installed and what the next install run would do.
func Status(ctx context.Context, opts Options) error {
	e, err := setup(opts, toolLog)
	if err != nil {
		return err
	}
	if err := writeStatus(ctx, e.out, e.cfg, e.fs, e.store, e.gate); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%-18s %s\n", "state files:", strings.Join(e.store.Paths(), ", "))
	return nil
}

func writeStatus(ctx context.Context, out io.Writer, cfg config.Config, fs afero.Fs, store state.Store, gate *versiongate.Gate) error {
	recorded, err := store.Load()
	if err != nil {
		return fmt.Errorf("load install record: %w", err)
	}
	pending, err := store.Get(state.UpdatePending)
	if err != nil {
		return fmt.Errorf("read update flag: %w", err)
	}

	installed := gate.InstalledVersion(ctx)
	latest := "unknown"
	if v := gate.LatestVersion(ctx); v != nil {
		latest = v.String()
	}
	installedText := installed.String()
	if installed.Equal(versiongate.Minimum) {
		installedText = "not installed"
	}

	fmt.Fprintf(out, "%-18s %s\n", "package:", cfg.Package)
	fmt.Fprintf(out, "%-18s %s\n", "installed:", installedText)
	fmt.Fprintf(out, "%-18s %s\n", "latest:", latest)
	fmt.Fprintf(out, "%-18s %t\n", "update pending:", pending)
	if recorded.IsZero() {
		fmt.Fprintf(out, "%-18s %s\n", "install record:", "none")
	} else {
		fmt.Fprintf(out, "%-18s %s (%s, %s)\n", "install record:",
			recorded.InstallerVersion, recorded.Channel, recorded.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "%-18s %s\n", "autostart:", presence(fs, cfg.AutostartFile))
	fmt.Fprintf(out, "%-18s %s\n", "environment:", presence(fs, cfg.VenvBin()))
	fmt.Fprintf(out, "%-18s %s\n", "output log:", cfg.OutputLog)
	return nil
}

func presence(fs afero.Fs, path string) string {
	ok, err := afero.Exists(fs, path)
	switch {
	case err != nil:
		return "unknown (" + err.Error() + ")"
	case ok:
		return path
	default:
		return "missing"
	}
}

// LogsOptions select what `logs` shows.
type LogsOptions struct {
	Lines   int
	Session bool
	// Plain prints lines instead of opening the viewer.
	Plain bool
}

// Logs shows the app's output log, interactively when stdout is a terminal.
func Logs(ctx context.Context, opts Options, lo LogsOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if !lo.Plain && out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) {
		return ui.Run(ui.Options{
			Path:    cfg.OutputLog,
			Marker:  launcher.SessionMarker,
			Session: lo.Session,
			Limit:   lo.Lines,
		})
	}
	return printLog(out, cfg.OutputLog, lo)
}

func printLog(out io.Writer, path string, lo LogsOptions) error {
	var (
		lines []string
		err   error
	)
	if lo.Session {
		lines, err = logtail.Session(path, launcher.SessionMarker, lo.Lines)
	} else {
		lines, err = logtail.Read(path, lo.Lines)
	}
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintf(out, "no output in %s\n", path)
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}
