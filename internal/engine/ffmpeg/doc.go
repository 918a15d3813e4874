// Package ffmpeg implements engine.Engine by running a staged ffmpeg runtime
// as a child process.
//
// Each engine owns a private sandbox under the scratch root:
//
//	<scratch>/engine-<uuid>/
//	  .lock      flock held for the engine's lifetime
//	  fs/        virtual filesystem; commands run here
//	  runtime/   staged core executable and backend library
//
// Sandboxes whose lock can be acquired belong to processes that exited
// without cleaning up and are removed when a new engine is created.
package ffmpeg
