// Package remote is the HTTP client for the project service that owns
// persistent state for projects, scenes, shots, assets, and chat.
//
// Reads are retried with exponential backoff and honour Retry-After. Mutations
// are sent exactly once: retrying a mutation is always a new user intent.
// Failures are tagged with services markers (ErrNotFound, ErrValidation,
// ErrTransient, ErrUnavailable) so callers classify them with errors.Is.
package remote
