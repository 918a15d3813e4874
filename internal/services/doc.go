// Package services defines shared utilities consumed by the engine, job, and
// transcoding packages.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell an
//     initialization failure from a failed job or a rejected input with
//     errors.Is.
//
// Use these helpers when wiring new operations so error classification and
// log fields stay uniform across the subsystem.
package services
