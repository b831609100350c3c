// Package install converges a machine to a working PiKaraoke setup.
//
// Installer.Run executes a fixed sequence of idempotent steps: platform check,
// legacy cleanup, system packages, Python environment, optional DeskPi driver,
// generated assets, autostart entry, shell profile integration, install
// record, update check, and pending forced reinstall. Required steps abort
// the run with a *StepError; optional steps only add warnings to the Report.
//
// Generated files are rendered from embedded templates and always rewritten,
// so repeated runs produce the same tree.
package install
