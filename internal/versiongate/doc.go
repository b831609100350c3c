// Package versiongate decides when the app must be upgraded and when an old
// installer layout needs cleaning up first.
package versiongate
