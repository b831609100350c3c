// Package ui is the terminal viewer behind `karaokepi logs`.
//
// It is a small Bubble Tea program: a viewport over the app's output log,
// reloaded on a tick, following the tail until the user scrolls up. The
// viewer can show the whole log or only the lines since the most recent
// launch marker.
//
// Key bindings:
//
//	q, esc, ctrl+c  quit
//	f               toggle follow
//	s               toggle latest session / all output
//	r               reload now
//	j/k, arrows     scroll
//	g/G             top / bottom
package ui
