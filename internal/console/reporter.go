package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bb9af7"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// Reporter writes styled progress lines. Safe for concurrent use.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer

	warnings int
	failures int
}

// New returns a Reporter writing to out, or stdout when out is nil.
func New(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

// Header prints a section title.
func (r *Reporter) Header(title string) {
	r.println(headerStyle.Render(title))
}

// Step announces a step that is starting.
func (r *Reporter) Step(name string) {
	r.println(mutedStyle.Render("• ") + name)
}

// OK reports success.
func (r *Reporter) OK(format string, args ...any) {
	r.println(okStyle.Render("  ✓ ") + fmt.Sprintf(format, args...))
}

// Skip reports a step with nothing to do.
func (r *Reporter) Skip(format string, args ...any) {
	r.println(mutedStyle.Render("  - " + fmt.Sprintf(format, args...)))
}

// Warn reports a non-fatal problem.
func (r *Reporter) Warn(format string, args ...any) {
	r.mu.Lock()
	r.warnings++
	r.mu.Unlock()
	r.println(warnStyle.Render("  ! ") + fmt.Sprintf(format, args...))
}

// Fail reports a fatal problem.
func (r *Reporter) Fail(format string, args ...any) {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
	r.println(failStyle.Render("  ✗ ") + fmt.Sprintf(format, args...))
}

// Info prints a plain line.
func (r *Reporter) Info(format string, args ...any) {
	r.println(fmt.Sprintf(format, args...))
}

// Counts returns how many warnings and failures were reported.
func (r *Reporter) Counts() (warnings, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings, r.failures
}

// Summary prints a closing line reflecting the counts.
func (r *Reporter) Summary(done string) {
	warnings, failures := r.Counts()
	switch {
	case failures > 0:
		r.println(failStyle.Render(fmt.Sprintf("%s with %d error(s)", done, failures)))
	case warnings > 0:
		r.println(warnStyle.Render(fmt.Sprintf("%s with %d warning(s)", done, warnings)))
	default:
		r.println(okStyle.Render(done))
	}
}

func (r *Reporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, strings.TrimRight(line, "\n"))
}
