package state

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// FileStore keeps markers as files under the user's home directory and the
// install record as a TOML document.
type FileStore struct {
	fs        afero.Fs
	markers   map[Marker]string
	statePath string
}

var _ Store = (*FileStore)(nil)

// NewFileStore builds a FileStore. markers maps each marker to its file path.
func NewFileStore(fs afero.Fs, statePath string, markers map[Marker]string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dup := make(map[Marker]string, len(markers))
	for k, v := range markers {
		dup[k] = v
	}
	return &FileStore{fs: fs, markers: dup, statePath: statePath}
}

// Get implements Store.
func (s *FileStore) Get(m Marker) (bool, error) {
	path, err := s.markerPath(m)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("stat marker %s: %w", m, err)
	}
	return ok, nil
}

// Set implements Store.
func (s *FileStore) Set(m Marker) error {
	path, err := s.markerPath(m)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create marker dir: %w", err)
	}
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("set marker %s: %w", m, err)
	}
	return f.Close()
}

// Consume implements Store.
func (s *FileStore) Consume(m Marker, action func() error) (bool, error) {
	path, err := s.markerPath(m)
	if err != nil {
		return false, err
	}
	return consume(
		func() (bool, error) { return s.Get(m) },
		action,
		func() error { return s.remove(path) },
	)
}

// Load implements Store.
func (s *FileStore) Load() (InstallState, error) {
	data, err := afero.ReadFile(s.fs, s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return InstallState{}, nil
		}
		return InstallState{}, fmt.Errorf("read install state: %w", err)
	}
	var st InstallState
	if err := toml.Unmarshal(data, &st); err != nil {
		return InstallState{}, fmt.Errorf("parse install state: %w", err)
	}
	return st, nil
}

// Save implements Store.
func (s *FileStore) Save(st InstallState) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal install state: %w", err)
	}
	tmp := s.statePath + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write install state: %w", err)
	}
	if err := s.fs.Rename(tmp, s.statePath); err != nil {
		return fmt.Errorf("replace install state: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	for _, path := range s.markers {
		if err := s.remove(path); err != nil {
			return err
		}
	}
	return s.remove(s.statePath)
}

// Paths lists every file the store may create.
func (s *FileStore) Paths() []string {
	out := make([]string, 0, len(s.markers)+1)
	for _, p := range s.markers {
		out = append(out, p)
	}
	return append(out, s.statePath)
}

func (s *FileStore) markerPath(m Marker) (string, error) {
	path, ok := s.markers[m]
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownMarker, m)
	}
	return path, nil
}

func (s *FileStore) remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
