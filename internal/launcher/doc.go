// Package launcher starts the media application as a detached process whose
// output is appended to a persistent log.
package launcher
