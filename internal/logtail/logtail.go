package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	lines, err := tail(file, maxLines, "")
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Session returns the lines written since the last line starting with
// marker, the marker line included, capped to the last maxLines. When the
// marker never appears the whole file is treated as one session.
func Session(path, marker string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()
	return tail(file, maxLines, marker)
}

// tail keeps a ring of the newest lines. A non-empty reset marker empties the
// ring whenever a line starts with it.
func tail(r io.Reader, maxLines int, reset string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var all []string
		for scanner.Scan() {
			line := scanner.Text()
			if reset != "" && strings.HasPrefix(line, reset) {
				all = all[:0]
			}
			all = append(all, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return all, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if reset != "" && strings.HasPrefix(line, reset) {
			count, idx = 0, 0
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Severity is a coarse classification of a log line.
type Severity int

const (
	Plain Severity = iota
	Debug
	Info
	Warn
	Error
)

// Classify guesses a line's severity from logrus and Python logging markers.
func Classify(line string) Severity {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "ERROR"), strings.Contains(upper, "CRITICAL"), strings.Contains(upper, "TRACEBACK"):
		return Error
	case strings.Contains(upper, "WARN"):
		return Warn
	case strings.Contains(upper, "DEBUG"):
		return Debug
	case strings.Contains(upper, "INFO"):
		return Info
	}
	return Plain
}
