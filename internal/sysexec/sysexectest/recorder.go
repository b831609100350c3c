package sysexectest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/five82/karaokepi/internal/sysexec"
)

// Response is what the recorder returns for a matching command.
type Response struct {
	Output string
	Err    error
	// Do runs before the response is returned, e.g. to create files the real
	// command would have created.
	Do func(cmd sysexec.Command)
}

// Recorder records every command and answers from prefix-matched responses.
// Commands without a response succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	responses []prefixed
	calls     []sysexec.Command
	// Missing lists binaries LookPath should fail for.
	Missing map[string]bool
}

type prefixed struct {
	prefix string
	resp   Response
}

var _ sysexec.Runner = (*Recorder)(nil)

// On registers a response for commands whose rendered line starts with prefix.
// Later registrations win.
func (r *Recorder) On(prefix string, resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, prefixed{prefix: prefix, resp: resp})
	return r
}

// Run implements sysexec.Runner.
func (r *Recorder) Run(_ context.Context, cmd sysexec.Command) error {
	return r.answer(cmd).Err
}

// Output implements sysexec.Runner.
func (r *Recorder) Output(_ context.Context, cmd sysexec.Command) (string, error) {
	resp := r.answer(cmd)
	return resp.Output, resp.Err
}

// LookPath implements sysexec.Runner.
func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Missing[name] {
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns the rendered command lines in call order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

// Count returns how many recorded commands start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, line := range r.Calls() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func (r *Recorder) answer(cmd sysexec.Command) Response {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	line := cmd.String()
	var resp Response
	for i := len(r.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.responses[i].prefix) {
			resp = r.responses[i].resp
			break
		}
	}
	r.mu.Unlock()

	if resp.Do != nil {
		resp.Do(cmd)
	}
	return resp
}
