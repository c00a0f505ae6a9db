// Package optimistic applies user edits to the current project immediately and
// confirms them against the project service in the background.
//
// Every edit is an Intent: an Apply step that mutates the store and returns one
// Restore per target it touched, and a Remote call that runs detached from the
// caller. When the remote call fails, only the targets the operation still owns
// are restored, so a later edit of the same target always wins locally and
// unrelated concurrent edits survive. Reorder and delete intents have no
// restores; their failures are reported but the local state is kept.
//
// Resolutions that arrive after the user switched projects are discarded
// without touching the store.
package optimistic
