// Package generation runs server-side AI generation for scenes and merges the
// results into the current project.
//
// The loading state lives in a Registry keyed by scene (or by project for
// bulk scene generation) instead of in the aggregate. Results only ever
// write the fields generation owns, script or shots plus status, so manual
// edits made while a generation was running are preserved. A result that
// arrives after the user switched projects is discarded.
package generation
