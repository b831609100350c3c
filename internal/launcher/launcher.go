package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// SessionMarker prefixes the line written to the output log before each spawn.
const SessionMarker = "[karaokepi] launch"

// Handle identifies a launched process. Callers must not wait on it.
type Handle struct {
	PID int
}

// Launcher starts the application.
type Launcher interface {
	Launch(ctx context.Context) (Handle, error)
}

// Process is the os/exec backed Launcher.
type Process struct {
	// Program is the executable name, resolved through BinDir first.
	Program string
	Args    []string
	// BinDir is prepended to PATH for the child and for resolution.
	BinDir string
	// LogPath receives the child's stdout and stderr, append-only.
	LogPath string

	now func() time.Time
}

var _ Launcher = (*Process)(nil)

// ErrNotFound is returned when Program cannot be resolved.
var ErrNotFound = errors.New("executable not found")

// Launch spawns the program in its own session and returns without waiting.
func (p *Process) Launch(ctx context.Context) (Handle, error) {
	path := AugmentPath(p.BinDir, os.Getenv("PATH"))
	bin, err := Resolve(p.Program, path)
	if err != nil {
		return Handle{}, err
	}

	if dir := filepath.Dir(p.LogPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Handle{}, fmt.Errorf("create log dir: %w", err)
		}
	}
	out, err := os.OpenFile(p.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Handle{}, fmt.Errorf("open output log: %w", err)
	}
	defer out.Close()

	now := time.Now
	if p.now != nil {
		now = p.now
	}
	if _, err := fmt.Fprintf(out, "%s %s\n", SessionMarker, now().Format(time.RFC3339)); err != nil {
		return Handle{}, fmt.Errorf("write output log: %w", err)
	}

	// The child outlives ctx.
	cmd := exec.Command(bin, p.Args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = withPath(os.Environ(), path)
	cmd.SysProcAttr = detachedAttr()

	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("start %s: %w", bin, err)
	}
	h := Handle{PID: cmd.Process.Pid}
	if err := cmd.Process.Release(); err != nil {
		log.WithError(err).Debug("release child process")
	}
	log.WithFields(log.Fields{"pid": h.PID, "bin": bin, "log": p.LogPath}).Info("application launched")
	return h, nil
}

// AugmentPath puts binDir in front of path unless it is already first.
func AugmentPath(binDir, path string) string {
	if binDir == "" {
		return path
	}
	if path == "" {
		return binDir
	}
	if first, _, _ := strings.Cut(path, string(os.PathListSeparator)); first == binDir {
		return path
	}
	return binDir + string(os.PathListSeparator) + path
}

// Resolve finds program in the directories of path. Names containing a
// separator are checked as-is.
func Resolve(program, path string) (string, error) {
	if program == "" {
		return "", fmt.Errorf("%w: empty program", ErrNotFound)
	}
	if strings.ContainsRune(program, os.PathSeparator) {
		if isExecutable(program) {
			return program, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, program)
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, program)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, program)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

func withPath(env []string, path string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+path)
}
