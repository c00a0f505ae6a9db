// Package notifications delivers failure and generation events via ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op otherwise. Events can be muted per category in config.toml. The
// Dispatcher wraps a Service so callbacks from the mutation engine and the
// generation controller never block on the network.
package notifications
