// Package jobs runs encoder commands against the managed engine with scoped
// virtual-file cleanup.
//
// A Runner writes a job's inputs into the engine's virtual filesystem, runs
// the command with an optional log listener attached, reads the requested
// outputs, and deletes every file it touched before returning, on success
// and failure alike. Multi-command work shares one Scope so an input is
// written once and removed after the last command.
package jobs
