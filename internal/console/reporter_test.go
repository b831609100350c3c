package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestReporter_CountsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Header("Installing")
	r.Step("assets")
	r.OK("placed %d files", 3)
	r.Warn("apt-get missing")
	r.Skip("driver not requested")
	r.Summary("Install complete")

	w, f := r.Counts()
	if w != 1 || f != 0 {
		t.Fatalf("Counts() = %d, %d, want 1, 0", w, f)
	}
	out := buf.String()
	for _, want := range []string{"Installing", "assets", "placed 3 files", "apt-get missing", "driver not requested", "Install complete with 1 warning(s)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReporter_FailureWinsSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Warn("w")
	r.Fail("f")
	r.Summary("Uninstall finished")
	if !strings.Contains(buf.String(), "Uninstall finished with 1 error(s)") {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}
