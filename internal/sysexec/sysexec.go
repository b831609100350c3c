package sysexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // appended to the current environment
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and streams its output to the runner's sinks.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its trimmed stdout.
	Output(ctx context.Context, cmd Command) (string, error)
	// LookPath reports where name would be executed from.
	LookPath(name string) (string, error)
}

// Exec is the os/exec backed Runner. Output of Run is duplicated to Stdout and
// Log, matching a tee into the install log.
type Exec struct {
	Stdout io.Writer
	Log    io.Writer
}

var _ Runner = (*Exec)(nil)

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd Command) error {
	log.Infof("running: %s", cmd)
	c := e.command(ctx, cmd)
	out := e.sink()
	c.Stdout = out
	c.Stderr = out
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, cmd Command) (string, error) {
	log.Debugf("running: %s", cmd)
	c := e.command(ctx, cmd)
	var stderr bytes.Buffer
	c.Stderr = &stderr
	out, err := c.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", cmd.Name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LookPath implements Runner.
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *Exec) command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func (e *Exec) sink() io.Writer {
	var writers []io.Writer
	if e.Stdout != nil {
		writers = append(writers, e.Stdout)
	}
	if e.Log != nil {
		writers = append(writers, e.Log)
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return io.MultiWriter(writers...)
}
