package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/five82/karaokepi/internal/sysexec"
)

// Zenity shows GTK popups through the zenity binary.
type Zenity struct {
	Runner sysexec.Runner
	Binary string
}

// Present implements Presenter. Info popups auto-close after Duration, error
// popups wait for the user.
func (z *Zenity) Present(ctx context.Context, n Notification) error {
	bin := z.Binary
	if bin == "" {
		bin = "zenity"
	}
	args := []string{"--title=" + n.Title, "--text=" + n.Message}
	if n.Level == Error {
		args = append([]string{"--error"}, args...)
	} else {
		args = append([]string{"--info"}, args...)
		if n.Duration > 0 {
			secs := int(math.Ceil(n.Duration.Seconds()))
			args = append(args, fmt.Sprintf("--timeout=%d", secs))
		}
	}
	err := z.Runner.Run(ctx, sysexec.Command{Name: bin, Args: args})
	if err != nil && n.Level != Error && n.Duration > 0 {
		// zenity exits 5 when its timeout closes the dialog.
		if strings.Contains(err.Error(), "exit status 5") {
			return nil
		}
	}
	return err
}

// Console prints styled lines, for terminals without a display server.
type Console struct {
	Out io.Writer
}

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true)
)

// Present implements Presenter.
func (c *Console) Present(_ context.Context, n Notification) error {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	style := infoStyle
	if n.Level == Error {
		style = errorStyle
	}
	_, err := fmt.Fprintf(out, "%s %s\n", style.Render(n.Title+":"), n.Message)
	return err
}

// Log writes notifications to the tool log only.
type Log struct{}

// Present implements Presenter.
func (Log) Present(_ context.Context, n Notification) error {
	entry := log.WithField("title", n.Title)
	if n.Level == Error {
		entry.Error(n.Message)
	} else {
		entry.Info(n.Message)
	}
	return nil
}

// Select picks a presenter for backend: zenity, console, log or auto. Auto
// prefers zenity when a display is available, then a terminal, then the log.
func Select(backend string, runner sysexec.Runner) Presenter {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "zenity":
		return &Zenity{Runner: runner}
	case "console":
		return &Console{}
	case "log":
		return Log{}
	}
	if hasDisplay() {
		if _, err := runner.LookPath("zenity"); err == nil {
			return &Zenity{Runner: runner}
		}
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return &Console{}
	}
	return Log{}
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
