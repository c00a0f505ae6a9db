// Package main hosts the cutify CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the daemon, which owns the optimistic project store. Commands that
// mutate the project return as soon as the daemon has applied the change
// locally; pass --wait to block until the project service settles it.
//
// Configuration resolution and socket discovery live in context.go so
// subcommands only deal with presentation.
package main
