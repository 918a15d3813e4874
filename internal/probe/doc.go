// Package probe extracts duration and resolution from the encoder's
// diagnostic log stream.
//
// A probe runs the encoder with an input and no output. The encoder prints
// its stream summary and then exits non-zero because no output was named;
// that failure is expected and ignored. The first matching line wins, and a
// probe that matches nothing yields zero values rather than an error.
package probe
