// Package config loads, normalizes, and validates cutify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CUTIFY_API_TOKEN. The Config type centralizes every knob the daemon and CLI
// need, so the project service endpoint, state directories, and the
// reconciliation policy are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
