// Package journal persists a local record of every optimistic operation and
// generation the daemon ran, plus small pieces of session state such as the
// last opened project. It is backed by SQLite (modernc.org/sqlite) so the
// daemon stays cgo-free.
//
// The journal is diagnostic. Losing it never affects project data, which the
// project service owns.
package journal
