package safefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Outcome classifies what Remove did.
type Outcome int

const (
	// Missing means there was nothing to remove.
	Missing Outcome = iota
	// Removed means the path is gone.
	Removed
	// Protected means the path is or contains a song library and was kept.
	Protected
	// Failed means removal was attempted and errored.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Missing:
		return "missing"
	case Removed:
		return "removed"
	case Protected:
		return "protected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a single Remove call.
type Result struct {
	Path    string
	Outcome Outcome
	// Reason names the protected path for Protected outcomes.
	Reason string
	Err    error
}

var errProtectedFound = errors.New("protected path found")

// Remover deletes files and directories unless they are protected.
type Remover struct {
	fs     afero.Fs
	marker string
}

// NewRemover builds a Remover. marker is matched case-insensitively as a
// substring of each path segment, e.g. "pikaraoke-songs".
func NewRemover(fs afero.Fs, marker string) *Remover {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Remover{fs: fs, marker: strings.ToLower(strings.TrimSpace(marker))}
}

// IsProtected reports whether any segment of path matches the marker.
func (r *Remover) IsProtected(path string) bool {
	if r.marker == "" {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if seg != "" && strings.Contains(strings.ToLower(seg), r.marker) {
			return true
		}
	}
	return false
}

// Remove deletes path. Protected targets, and directories with a protected
// descendant at any depth, are skipped and reported, never treated as errors.
func (r *Remover) Remove(path string) Result {
	res := Result{Path: path}

	if r.IsProtected(path) {
		res.Outcome = Protected
		res.Reason = path
		log.Warnf("skipping song library: %s", path)
		return res
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.Outcome = Missing
			return res
		}
		res.Outcome = Failed
		res.Err = fmt.Errorf("stat %s: %w", path, err)
		log.Errorf("error removing %s: %v", path, err)
		return res
	}

	if info.IsDir() {
		found, scanErr := r.findProtected(path)
		if scanErr != nil {
			res.Outcome = Failed
			res.Err = fmt.Errorf("scan %s: %w", path, scanErr)
			log.Errorf("error removing %s: %v", path, res.Err)
			return res
		}
		if found != "" {
			res.Outcome = Protected
			res.Reason = found
			log.Warnf("skipping %s: contains song library %s", path, found)
			return res
		}
		err = r.fs.RemoveAll(path)
	} else {
		err = r.fs.Remove(path)
	}
	if err != nil {
		res.Outcome = Failed
		res.Err = fmt.Errorf("remove %s: %w", path, err)
		log.Errorf("error removing %s: %v", path, err)
		return res
	}

	res.Outcome = Removed
	log.Infof("removed %s", path)
	return res
}

// RemoveAll removes every path in order and returns one Result per path.
func (r *Remover) RemoveAll(paths ...string) []Result {
	out := make([]Result, 0, len(paths))
	for _, p := range paths {
		out = append(out, r.Remove(p))
	}
	return out
}

func (r *Remover) findProtected(root string) (string, error) {
	var found string
	err := afero.Walk(r.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p != root && r.IsProtected(p) {
			found = p
			return errProtectedFound
		}
		return nil
	})
	if errors.Is(err, errProtectedFound) {
		return found, nil
	}
	return "", err
}
