package state

import (
	"errors"
	"time"
)

// Marker is a boolean fact persisted as presence/absence.
type Marker string

// UpdatePending forces a reinstall of the app on the next install run.
const UpdatePending Marker = "update-pending"

// ErrUnknownMarker is returned for markers the store has no location for.
var ErrUnknownMarker = errors.New("unknown marker")

// InstallState records what the last successful install applied.
type InstallState struct {
	InstallerVersion string    `toml:"installer_version"`
	AppVersion       string    `toml:"app_version"`
	Commit           string    `toml:"commit"`
	Channel          string    `toml:"channel"`
	UpdatedAt        time.Time `toml:"updated_at"`
}

// IsZero reports whether no install has been recorded.
func (s InstallState) IsZero() bool {
	return s.InstallerVersion == "" && s.AppVersion == "" && s.Commit == "" && s.UpdatedAt.IsZero()
}

// Store persists markers and the install record.
type Store interface {
	// Get reports whether the marker is set.
	Get(m Marker) (bool, error)
	// Set sets the marker. Setting an already-set marker is a no-op.
	Set(m Marker) error
	// Consume runs action when the marker is set and clears the marker only
	// after action succeeds. A crash or error between the two leaves the marker
	// in place, so the action may run again: delivery is at-least-once.
	// It reports whether the marker was present.
	Consume(m Marker, action func() error) (bool, error)

	// Load returns the recorded install state, zero when none exists.
	Load() (InstallState, error)
	// Save replaces the recorded install state.
	Save(s InstallState) error
	// Clear removes every marker and the install record.
	Clear() error
}

// consume is the shared at-least-once sequence.
func consume(get func() (bool, error), action func() error, clear func() error) (bool, error) {
	present, err := get()
	if err != nil || !present {
		return false, err
	}
	if action != nil {
		if err := action(); err != nil {
			return true, err
		}
	}
	return true, clear()
}
