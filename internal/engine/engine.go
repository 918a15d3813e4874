package engine

import (
	"context"
)

// Assets holds the runtime payload an engine is initialized from.
type Assets struct {
	Core    []byte
	Backend []byte
}

// Size returns the combined payload size in bytes.
func (a Assets) Size() int {
	return len(a.Core) + len(a.Backend)
}

// Progress is a progress event emitted by an engine while it initializes or
// executes a command. Ratio is in [0,1].
type Progress struct {
	Ratio float64
}

// Engine is the exclusive, stateful encoder instance. Virtual files live in an
// engine-private namespace addressed by plain names. Missing files are
// reported with errors matching fs.ErrNotExist.
type Engine interface {
	Initialize(ctx context.Context, assets Assets) error
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error
	// Exec runs one encoder command and returns a non-nil error when the
	// command fails. Log listeners receive diagnostic lines synchronously
	// during the call.
	Exec(ctx context.Context, args []string) error
	OnLog(listener func(line string)) (unsubscribe func())
	OnProgress(listener func(Progress)) (unsubscribe func())
	Close() error
}

// Factory constructs an uninitialized engine.
type Factory func() (Engine, error)

// Fetcher resolves and downloads the runtime payload. progress receives the
// download fraction in [0,1].
type Fetcher interface {
	Fetch(ctx context.Context, progress func(ratio float64)) (Assets, error)
}
