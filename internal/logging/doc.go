// Package logging builds the slog loggers framepress components share.
//
// Two handlers are available: a single-line console format that promotes the
// component attribute to a prefix, and a JSON format with short keys for log
// shippers. WithContext stamps job, operation, and correlation identifiers
// from a context onto a logger, and ProgressSampler keeps engine load progress
// from flooding the log.
package logging
