package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"framepress/internal/logging"
	"framepress/internal/services"
)

// ErrReleased is returned to EnsureReady callers whose load was abandoned by
// Release.
var ErrReleased = errors.New("engine released")

const (
	fetchProgressSpan = 50
	loadProgressSpan  = 50
)

// Manager owns the single engine instance and its lifecycle.
type Manager struct {
	fetcher  Fetcher
	factory  Factory
	logger   *slog.Logger
	observer Observer

	mu         sync.Mutex
	status     Status
	engine     Engine
	load       *loadCycle
	generation uint64
	sampler    *logging.ProgressSampler

	// slot is a one-token semaphore guarding engine access in Do.
	slot chan struct{}
}

// loadCycle is one in-flight initialization shared by every waiter.
type loadCycle struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	once       sync.Once
	err        error
}

func (c *loadCycle) finish(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Option customises the Manager.
type Option func(*Manager)

// WithObserver registers a lifecycle observer.
func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// NewManager constructs a manager in StateUnloaded. Nothing is fetched or
// built until EnsureReady is called.
func NewManager(fetcher Fetcher, factory Factory, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		fetcher:  fetcher,
		factory:  factory,
		logger:   logging.NewComponentLogger(logger, "engine"),
		observer: nopObserver{},
		sampler:  logging.NewProgressSampler(5),
		slot:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns a snapshot of the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Progress returns the current 0-100 load progress.
func (m *Manager) Progress() int {
	return m.Status().Progress
}

// EnsureReady returns once the engine is ready, starting a load when none is
// in flight. Concurrent callers share one load and observe the same outcome.
// A caller whose context ends stops waiting; the load itself continues until
// it completes or Release is called.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	if m.status.State == StateReady && m.engine != nil {
		m.mu.Unlock()
		return nil
	}
	cycle := m.load
	if cycle == nil {
		cycle = m.startLoadLocked(ctx)
	}
	m.mu.Unlock()

	select {
	case <-cycle.done:
		return cycle.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release discards the engine, cancels any load in flight, and returns the
// manager to StateUnloaded. Calling it again is a no-op.
func (m *Manager) Release() {
	m.mu.Lock()
	cycle := m.load
	eng := m.engine
	wasUnloaded := m.status.State == StateUnloaded && cycle == nil && eng == nil
	m.generation++
	m.load = nil
	m.engine = nil
	m.sampler.Reset()
	m.setStateLocked(StateUnloaded, 0, "")
	m.mu.Unlock()

	if cycle != nil {
		cycle.cancel()
		cycle.finish(ErrReleased)
	}
	if eng != nil {
		if err := eng.Close(); err != nil {
			m.logger.Warn("engine close failed", logging.Error(err))
		}
	}
	if !wasUnloaded {
		m.logger.Info("engine released")
	}
}

// Do runs fn with exclusive access to the ready engine. It fails with
// services.ErrNotReady when no engine is loaded.
func (m *Manager) Do(ctx context.Context, fn func(Engine) error) error {
	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.slot }()

	m.mu.Lock()
	eng := m.engine
	ready := m.status.State == StateReady
	m.mu.Unlock()
	if !ready || eng == nil {
		return services.Wrap(services.ErrNotReady, "engine", "do", "engine is not ready", nil)
	}
	return fn(eng)
}

func (m *Manager) startLoadLocked(ctx context.Context) *loadCycle {
	m.generation++
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cycle := &loadCycle{
		generation: m.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	m.load = cycle
	m.sampler.Reset()
	m.setStateLocked(StateLoading, 0, "")
	go m.runLoad(loadCtx, cycle)
	return cycle
}

func (m *Manager) runLoad(ctx context.Context, cycle *loadCycle) {
	defer cycle.cancel()
	started := time.Now()
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("engine load started")

	eng, err := m.build(ctx, cycle)

	m.mu.Lock()
	if m.generation != cycle.generation {
		m.mu.Unlock()
		if eng != nil {
			_ = eng.Close()
		}
		cycle.finish(ErrReleased)
		m.observer.LoadFinished(OutcomeReleased, time.Since(started))
		logger.Info("engine load abandoned after release")
		return
	}
	m.load = nil
	if err != nil {
		m.setStateLocked(StateError, m.status.Progress, err.Error())
		m.mu.Unlock()
		cycle.finish(err)
		m.observer.LoadFinished(OutcomeError, time.Since(started))
		logger.Error("engine load failed", logging.Error(err))
		return
	}
	m.engine = eng
	m.setStateLocked(StateReady, 100, "")
	m.mu.Unlock()
	cycle.finish(nil)
	elapsed := time.Since(started)
	m.observer.LoadFinished(OutcomeReady, elapsed)
	logger.Info("engine ready", logging.Duration("elapsed", elapsed))
}

// build fetches the payload and initializes a fresh engine. On failure the
// partially built engine is closed and nil is returned.
func (m *Manager) build(ctx context.Context, cycle *loadCycle) (Engine, error) {
	if m.fetcher == nil || m.factory == nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "load", "manager has no fetcher or factory", nil)
	}

	assets, err := m.fetcher.Fetch(ctx, func(ratio float64) {
		m.advance(cycle.generation, "fetch", int(clampRatio(ratio)*fetchProgressSpan))
	})
	if err != nil {
		return nil, services.Wrap(services.ErrInitialization, "engine", "fetch", "fetch runtime payload", err)
	}
	m.advance(cycle.generation, "fetch", fetchProgressSpan)

	eng, err := m.factory()
	if err != nil {
		return nil, services.Wrap(services.ErrInitialization, "engine", "construct", "construct engine", err)
	}

	unsubscribe := eng.OnProgress(func(p Progress) {
		m.advance(cycle.generation, "initialize", fetchProgressSpan+int(clampRatio(p.Ratio)*loadProgressSpan))
	})
	err = eng.Initialize(ctx, assets)
	unsubscribe()
	if err != nil {
		_ = eng.Close()
		return nil, services.Wrap(services.ErrInitialization, "engine", "initialize", "initialize engine", err)
	}
	return eng, nil
}

// advance raises load progress for the given cycle. Values from a stale cycle
// or lower than the current progress are ignored.
func (m *Manager) advance(generation uint64, phase string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation || m.status.State != StateLoading {
		return
	}
	if value > 100 {
		value = 100
	}
	if value <= m.status.Progress {
		return
	}
	m.status.Progress = value
	if m.sampler.Sample(value, phase) {
		m.logger.Debug("engine load progress", logging.Int(logging.FieldProgress, value), logging.String("phase", phase))
	}
}

func (m *Manager) setStateLocked(state State, progress int, message string) {
	changed := m.status.State != state
	m.status = Status{State: state, Progress: progress, Message: message}
	if changed {
		m.observer.StateChanged(state)
	}
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
