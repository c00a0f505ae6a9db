// Package daemon coordinates the long-running cutify process.
//
// It wires configuration, the operation journal and the editing workspace into
// a single lifecycle with flock-based locking to prevent multiple instances.
// On start it marks operations orphaned by a previous run as abandoned, prunes
// old journal entries, reopens the last project and serves a small HTTP API
// with status, the current project, recent failures and Prometheus metrics.
//
// Keep orchestration logic here: mutation and generation semantics live in
// their own packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
