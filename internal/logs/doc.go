// Package logs reads the daemon's log files for `cutify logs`.
//
// The daemon writes one file per run and keeps cutify.log pointing at the
// newest. Last reads the final lines with bounded memory and Follow polls for
// appended lines, starting over when the pointer moves to a new run.
package logs
