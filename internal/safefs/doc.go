// Package safefs is the single removal primitive used by install and
// uninstall. It refuses to delete anything that looks like the user's song
// library, no matter how deep it sits.
//
// # Protection Rule
//
// A path is protected when any of its segments contains the marker
// (default "pikaraoke-songs"), compared case-insensitively. A directory is
// removed only after a full walk finds no protected descendant; otherwise it
// is kept whole and the Result names the first protected path found.
//
// # Outcomes
//
//   - Missing: nothing to do, not an error
//   - Removed: the path is gone
//   - Protected: kept on purpose
//   - Failed: stat, walk or delete returned an error; the path may remain
package safefs
