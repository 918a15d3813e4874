package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"framepress/internal/engine"
)

var engineStates = []engine.State{
	engine.StateUnloaded,
	engine.StateLoading,
	engine.StateReady,
	engine.StateError,
}

// EngineObserver records engine lifecycle metrics.
type EngineObserver struct{}

// StateChanged implements engine.Observer.
func (EngineObserver) StateChanged(state engine.State) {
	for _, candidate := range engineStates {
		value := 0.0
		if candidate == state {
			value = 1
		}
		EngineState.WithLabelValues(candidate.String()).Set(value)
	}
}

// LoadFinished implements engine.Observer.
func (EngineObserver) LoadFinished(outcome string, elapsed time.Duration) {
	EngineLoadsTotal.WithLabelValues(outcome).Inc()
	if outcome == engine.OutcomeReady {
		EngineLoadDuration.Observe(elapsed.Seconds())
	}
}

// JobObserver records scoped job metrics.
type JobObserver struct{}

// JobFinished implements jobs.Observer.
func (JobObserver) JobFinished(operation, outcome string, elapsed time.Duration) {
	JobsTotal.WithLabelValues(operation, outcome).Inc()
	JobDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// TierObserver records quality ladder tier metrics.
type TierObserver struct{}

// TierFinished implements ladder.Observer.
func (TierObserver) TierFinished(tier string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	LadderTiersTotal.WithLabelValues(tier, status).Inc()
}

// WriteTextfile writes the default registry to path in the Prometheus text
// exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
