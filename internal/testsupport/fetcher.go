package testsupport

import (
	"context"
	"sync/atomic"

	"framepress/internal/engine"
)

// StaticFetcher is an engine.Fetcher returning fixed assets.
type StaticFetcher struct {
	Assets engine.Assets
	Err    error
	// Block, when non-nil, holds Fetch after its first progress report until
	// the channel is closed or the context ends.
	Block chan struct{}

	calls atomic.Int32
}

// Fetch implements engine.Fetcher.
func (f *StaticFetcher) Fetch(ctx context.Context, progress func(float64)) (engine.Assets, error) {
	f.calls.Add(1)
	if progress != nil {
		progress(0.5)
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return engine.Assets{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return engine.Assets{}, f.Err
	}
	if progress != nil {
		progress(1)
	}
	return f.Assets, nil
}

// Calls reports how many times Fetch ran.
func (f *StaticFetcher) Calls() int {
	return int(f.calls.Load())
}
