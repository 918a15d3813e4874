// Package transcoder exposes the public media operations: thumbnails,
// duration and resolution probes, audio extraction and quality ladders.
//
// Every operation loads the engine on first use and runs through a single
// scoped job runner, so scratch files never outlive a call. Callers are
// expected to submit operations one at a time; concurrent submissions are
// serialized by the engine manager rather than queued.
package transcoder
