// Package state persists the small amount of state karaokepi carries between
// runs.
//
// # Markers
//
// A Marker is a boolean persisted as file existence. The only marker today is
// UpdatePending (~/.pikaraoke_update_pending): set by the version gate when a
// newer major.minor release exists, consumed by the installer, which forces a
// reinstall of the app.
//
// Consume runs the caller's action first and deletes the marker afterwards:
//
//	Consume(UpdatePending, reinstall)
//	  ├─> Get()        absent → return (false, nil)
//	  ├─> reinstall()  error  → marker kept, error returned
//	  └─> remove()     marker gone
//
// A crash between the action and the delete repeats the action on the next run.
//
// # Install Record
//
// InstallState is a TOML document (~/.config/karaokepi/state.toml):
//
//	installer_version = "0.4.0"
//	app_version = "1.2.3"
//	commit = "abc1234"
//	channel = "stable"
//	updated_at = 2026-10-19T12:00:00Z
//
// It is created by the first successful install, rewritten by every later one,
// and removed only by uninstall (Clear).
//
// # Implementations
//
//   - FileStore: afero-backed, used by the CLI (afero.NewOsFs) and by tests
//     (afero.NewMemMapFs).
//   - MemStore: mutex-guarded maps for tests that don't care about files.
package state
