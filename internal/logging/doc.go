// Package logging configures the process-wide logrus logger.
package logging
