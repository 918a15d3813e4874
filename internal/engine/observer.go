package engine

import "time"

// Load outcomes reported to observers.
const (
	OutcomeReady    = "ready"
	OutcomeError    = "error"
	OutcomeReleased = "released"
)

// Observer receives lifecycle notifications. Implementations must be safe for
// concurrent use and must not call back into the Manager.
type Observer interface {
	StateChanged(state State)
	LoadFinished(outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State) {}

func (nopObserver) LoadFinished(string, time.Duration) {}
