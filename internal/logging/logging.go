package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log entries go.
type Options struct {
	Level string
	// Path of the rotating log file. Empty or "console" disables the file.
	Path string
	// Console mirrors entries to stderr.
	Console bool
	// Quiet drops entries when neither a file nor the console is selected.
	Quiet bool
}

// Init parses the level and points logrus at a rotating file and/or stderr.
// It returns the writer entries are sent to so command output can be tee'd
// into the same file.
func Init(opts Options) (io.Writer, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", levelName, err)
	}

	var writers []io.Writer
	if opts.Path != "" && opts.Path != "console" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.ToSlash(opts.Path),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	switch {
	case opts.Console:
		writers = append(writers, os.Stderr)
	case len(writers) == 0 && opts.Quiet:
		writers = append(writers, io.Discard)
	case len(writers) == 0:
		writers = append(writers, os.Stderr)
	}

	out := writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}
	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(level)
	return out, nil
}
