// Package engine defines the encoder capability framepress drives and the
// Manager that owns its single lazily-built instance.
//
// The Manager fetches the runtime payload, constructs the engine through an
// injected Factory, and tracks the Unloaded, Loading, Ready, and Error states
// with monotonic 0-100 progress. Concurrent EnsureReady calls share one load;
// Release discards the engine and cancels any load in flight. Do serializes
// access so at most one job touches the engine at a time.
package engine
