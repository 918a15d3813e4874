// Package config loads, normalizes, and validates framepress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FRAMEPRESS_RUNTIME_BASE_URL
// environment override. The Config type centralizes the scratch root used by
// engine sandboxes, the versioned runtime payload location, and logging and
// metrics output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved asset URLs, and clear validation errors.
package config
