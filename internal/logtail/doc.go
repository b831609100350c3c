// Package logtail reads the end of log files without loading them whole.
//
// Read keeps a ring buffer of the last N lines in one pass. Session does the
// same but restarts the ring at every launch marker, so it returns only the
// output of the most recent app start. Classify assigns a coarse severity
// for highlighting.
//
// Missing files are not errors; they simply have no lines.
package logtail
