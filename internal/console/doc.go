// Package console prints install and uninstall progress for a human at a
// terminal. Detailed output goes to the log file; this is the summary view.
package console
