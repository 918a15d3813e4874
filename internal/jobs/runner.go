package jobs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"framepress/internal/engine"
	"framepress/internal/logging"
	"framepress/internal/services"
)

// Job outcomes reported to observers.
const (
	OutcomeSuccess         = "success"
	OutcomeExpectedFailure = "expected_failure"
	OutcomeFailure         = "failure"
	OutcomeCanceled        = "canceled"
)

// Job is one scoped encoder invocation.
type Job struct {
	// Inputs are written to the virtual filesystem before the command runs.
	Inputs map[string][]byte
	Args   []string
	// Outputs are read after a successful command.
	Outputs []string
	// ExpectFailure treats a failing command as success with no outputs,
	// for probe-style invocations that exit non-zero by design.
	ExpectFailure bool
	// OnLog receives each diagnostic line while the command runs.
	OnLog func(line string)
}

// Executor grants exclusive access to a ready engine. *engine.Manager
// implements it.
type Executor interface {
	Do(ctx context.Context, fn func(engine.Engine) error) error
}

// Observer receives per-scope outcomes keyed by operation label.
type Observer interface {
	JobFinished(operation, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) JobFinished(string, string, time.Duration) {}

// Runner executes scoped jobs.
type Runner struct {
	executor Executor
	logger   *slog.Logger
	observer Observer
}

// Option customises the Runner.
type Option func(*Runner)

// WithObserver registers a job observer.
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// NewRunner constructs a runner over executor.
func NewRunner(executor Executor, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		executor: executor,
		logger:   logging.NewComponentLogger(logger, "jobs"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScoped runs job and returns the requested outputs keyed by name. Every
// input and output file is deleted before it returns.
func (r *Runner) RunScoped(ctx context.Context, job Job) (map[string][]byte, error) {
	var outputs map[string][]byte
	err := r.WithScope(ctx, job.Inputs, func(scope *Scope) error {
		for _, name := range job.Outputs {
			scope.Track(name)
		}
		if err := scope.Exec(job.Args, job.OnLog); err != nil {
			if job.ExpectFailure && ctx.Err() == nil {
				scope.expectedFailure = true
				outputs = map[string][]byte{}
				return nil
			}
			return err
		}
		outputs = make(map[string][]byte, len(job.Outputs))
		for _, name := range job.Outputs {
			data, err := scope.Read(name)
			if err != nil {
				return err
			}
			outputs[name] = data
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

// WithScope writes inputs, runs fn with a Scope over the engine, and deletes
// every file written, read, or tracked through the scope afterwards.
func (r *Runner) WithScope(ctx context.Context, inputs map[string][]byte, fn func(*Scope) error) error {
	ctx, _ = services.EnsureJobID(ctx)
	operation, ok := services.OperationFromContext(ctx)
	if !ok {
		operation = "job"
	}
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()

	var scope *Scope
	err := r.executor.Do(ctx, func(eng engine.Engine) error {
		scope = &Scope{ctx: ctx, engine: eng, logger: logger, tracked: map[string]struct{}{}}
		defer scope.cleanup()
		for name, data := range inputs {
			if err := scope.Write(name, data); err != nil {
				return err
			}
		}
		return fn(scope)
	})

	elapsed := time.Since(started)
	outcome := OutcomeSuccess
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = OutcomeCanceled
	case err != nil:
		outcome = OutcomeFailure
	case scope != nil && scope.expectedFailure:
		outcome = OutcomeExpectedFailure
	}
	r.observer.JobFinished(operation, outcome, elapsed)

	if err != nil {
		logger.Debug("job failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		return err
	}
	logger.Debug("job finished", logging.String("outcome", outcome), logging.Duration("elapsed", elapsed))
	return nil
}

// Scope is the engine view of one scoped job. It is valid only inside the
// function passed to WithScope.
type Scope struct {
	ctx             context.Context
	engine          engine.Engine
	logger          *slog.Logger
	tracked         map[string]struct{}
	order           []string
	expectedFailure bool
}

// Track registers name for deletion when the scope ends.
func (s *Scope) Track(name string) {
	if _, ok := s.tracked[name]; ok {
		return
	}
	s.tracked[name] = struct{}{}
	s.order = append(s.order, name)
}

// Write stores data in the virtual filesystem and tracks it.
func (s *Scope) Write(name string, data []byte) error {
	s.Track(name)
	if err := s.engine.WriteFile(name, data); err != nil {
		return services.Wrap(services.ErrJob, "jobs", "write", name, err)
	}
	return nil
}

// Exec runs one command with onLog attached for its duration. A failing
// command is reported with services.ErrJob; context errors pass through.
func (s *Scope) Exec(args []string, onLog func(string)) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if onLog != nil {
		unsubscribe := s.engine.OnLog(onLog)
		defer unsubscribe()
	}
	if err := s.engine.Exec(s.ctx, args); err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrJob, "jobs", "exec", "encoder command failed", err)
	}
	return nil
}

// Read returns a virtual file's content and tracks it for deletion.
func (s *Scope) Read(name string) ([]byte, error) {
	s.Track(name)
	data, err := s.engine.ReadFile(name)
	if err != nil {
		return nil, services.Wrap(services.ErrJob, "jobs", "read", "missing output "+name, err)
	}
	return data, nil
}

// Delete removes a virtual file now. Missing files are ignored.
func (s *Scope) Delete(name string) error {
	delete(s.tracked, name)
	if err := s.engine.DeleteFile(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrJob, "jobs", "delete", name, err)
	}
	return nil
}

func (s *Scope) cleanup() {
	for _, name := range s.order {
		if _, ok := s.tracked[name]; !ok {
			continue
		}
		if err := s.engine.DeleteFile(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("virtual file cleanup failed", logging.String("file", name), logging.Error(err))
		}
	}
	s.tracked = map[string]struct{}{}
	s.order = nil
}
