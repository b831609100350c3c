// Package app is the composition root behind the karaokepi commands.
//
// Each exported Run function loads the config, points logrus at the right
// log file and wires the concrete implementations together:
//
//   - RunLaunch: the supervisor with a network probe, the notification
//     dispatcher and the detached process launcher, then the version gate
//     once the app is running. This is what the autostart entry runs at
//     login.
//   - RunInstall: the installer with the real filesystem, command runner,
//     state store, platform checker and DeskPi driver manager.
//   - RunUninstall: the uninstaller. Its log entries are discarded because
//     it deletes every log file; the console report is the record.
//   - RunCheckUpdate: the version gate on its own, setting the update flag.
//   - Status and Logs: read-only views of the installation and the app's
//     output log.
//
// Install and uninstall report progress through the console reporter and
// return *install.StepError when a required step fails. Launch returns
// ErrLaunchAborted when no network came up in time.
package app
