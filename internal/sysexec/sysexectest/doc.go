// Package sysexectest provides a recording Runner for tests.
package sysexectest
