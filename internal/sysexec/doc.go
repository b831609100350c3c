// Package sysexec runs external commands (package managers, pip, git, zenity)
// on behalf of the orchestrators. Everything above this package talks to the
// Runner interface so tests can substitute a recording fake.
package sysexec
