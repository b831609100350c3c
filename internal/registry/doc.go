// Package registry fetches release metadata for the app from a PyPI-style JSON
// API (https://pypi.org/pypi/<package>/json).
//
// Only info.version is read. Requests carry a 5 second timeout; transport
// errors are retried twice with a constant backoff, HTTP status and decode
// errors fail immediately. Callers are expected to treat any error as
// "latest version unknown".
package registry
