// Package services defines shared utilities consumed by the state
// synchronization core and its outer layers.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, scene IDs, operation IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures from the
//     remote project service can be classified with errors.Is.
//   - Hint and Retryable, which turn a classified failure into the
//     user-visible guidance attached to notifications and logs.
//
// Use these helpers when wiring new components so failure handling and
// observability stay uniform across the client.
package services
