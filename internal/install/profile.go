package install

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ProfileLine returns the line that sources aliasesFile, written relative to
// $HOME when the file lives under home.
func ProfileLine(aliasesFile, home string) string {
	target := aliasesFile
	if home != "" {
		if rel, err := filepath.Rel(home, aliasesFile); err == nil && !strings.HasPrefix(rel, "..") {
			target = "$HOME/" + filepath.ToSlash(rel)
		}
	}
	return fmt.Sprintf(`[ -f "%s" ] && . "%s"`, target, target)
}

// ProfileGuard is the substring whose presence means the profile is already
// integrated.
func ProfileGuard(aliasesFile string) string {
	return filepath.Base(aliasesFile)
}

// EnsureProfileLine appends line to the profile unless guard already appears
// anywhere in it. A missing profile is created. It reports whether the file
// changed.
func EnsureProfileLine(fs afero.Fs, profile, line, guard string) (bool, error) {
	data, err := afero.ReadFile(fs, profile)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s: %w", profile, err)
	}
	if guard != "" && bytes.Contains(data, []byte(guard)) {
		return false, nil
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(line)
	buf.WriteByte('\n')

	mode := os.FileMode(0o644)
	if info, err := fs.Stat(profile); err == nil {
		mode = info.Mode().Perm()
	}
	if err := fs.MkdirAll(filepath.Dir(profile), 0o755); err != nil {
		return false, fmt.Errorf("create dir for %s: %w", profile, err)
	}
	if err := afero.WriteFile(fs, profile, buf.Bytes(), mode); err != nil {
		return false, fmt.Errorf("write %s: %w", profile, err)
	}
	return true, nil
}

// StripProfileLines removes every line containing guard. A missing profile
// is left alone. It reports whether the file changed.
func StripProfileLines(fs afero.Fs, profile, guard string) (bool, error) {
	if guard == "" {
		return false, nil
	}
	data, err := afero.ReadFile(fs, profile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", profile, err)
	}
	if !bytes.Contains(data, []byte(guard)) {
		return false, nil
	}

	lines := strings.SplitAfter(string(data), "\n")
	var kept strings.Builder
	for _, l := range lines {
		if strings.Contains(l, guard) {
			continue
		}
		kept.WriteString(l)
	}

	info, err := fs.Stat(profile)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", profile, err)
	}
	if err := afero.WriteFile(fs, profile, []byte(kept.String()), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", profile, err)
	}
	return true, nil
}
