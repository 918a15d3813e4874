// Package main hosts the framepress CLI entrypoint and command graph.
//
// Each media command loads the engine runtime on demand, runs one operation
// against a local video file, writes the result next to it (or where the
// flags say), and releases the engine before exiting so no sandbox outlives
// the process. The doctor command reports configuration and runtime source
// health without loading anything.
//
// Keep this package lean: behaviour belongs in internal/transcoder and its
// collaborators; commands here only parse flags, read and write files, and
// render results.
package main
