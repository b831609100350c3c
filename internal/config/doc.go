// Package config loads karaokepi's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/karaokepi/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - App package: pikaraoke, installed into ~/.venv-pikaraoke
//   - App output log: ~/pikaraoke_output.log (append-only)
//   - Install log: ~/pikaraoke_install.log
//   - Update flag: ~/.pikaraoke_update_pending
//   - Install state: ~/.config/karaokepi/state.toml
//   - Autostart descriptor: ~/.config/autostart/pikaraoke.desktop
//   - Probe: 8.8.8.8:53, 3 second timeout
//   - Launch tiers: poll every 5s, 10s quiet, 30s with notification
//
// # TOML Format
//
//	package = "pikaraoke"
//	channel = "stable"
//	venv_dir = "~/.venv-pikaraoke"
//	shell_profiles = ["~/.bashrc", "~/.profile"]
//
//	[launch]
//	probe_address = "8.8.8.8:53"
//	check_interval_seconds = 5
//	initial_wait_seconds = 10
//	extended_wait_seconds = 30
//
//	[notify]
//	backend = "auto" # auto, zenity, console, log
//
//	[driver]
//	service = "deskpi"
//
// Durations are whole seconds. Tilde expansion is performed for every path.
//
// Missing config files are NOT an error; an appliance fresh out of the box
// installs and launches with defaults.
package config
