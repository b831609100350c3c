// Package uninstall removes everything install created, and the artifacts of
// older installers, without ever touching the song library.
package uninstall
