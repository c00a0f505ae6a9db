// Package preflight provides readiness checks for the project service and
// the filesystem paths cutify depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check so a bad
//     token or unwritable state directory shows up before the first intent.
//   - The CLI "cutify status" command renders the same results alongside the
//     daemon's own status lines.
package preflight
