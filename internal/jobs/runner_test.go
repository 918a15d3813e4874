package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"framepress/internal/engine"
	"framepress/internal/jobs"
	"framepress/internal/services"
	"framepress/internal/testsupport"
)

type recordingObserver struct {
	mu      sync.Mutex
	entries []string
}

func (o *recordingObserver) JobFinished(operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, operation+":"+outcome)
}

func newRunner(t *testing.T, exec func(ctx context.Context, call testsupport.ExecCall) error, opts ...jobs.Option) (*jobs.Runner, *testsupport.FakeEngine) {
	t.Helper()
	manager, factory, err := testsupport.NewReadyManager(context.Background(), func(e *testsupport.FakeEngine) {
		e.ExecFunc = exec
	})
	if err != nil {
		t.Fatalf("NewReadyManager: %v", err)
	}
	return jobs.NewRunner(manager, nil, opts...), factory.Last()
}

func copyInputToOutput(_ context.Context, call testsupport.ExecCall) error {
	data, ok := call.Input(call.ArgAfter("-i"))
	if !ok {
		return errors.New("input missing")
	}
	call.Log("processing")
	call.Output(call.LastArg(), append([]byte("out:"), data...))
	return nil
}

func TestRunScopedReturnsOutputsAndCleansUp(t *testing.T) {
	observer := &recordingObserver{}
	runner, fake := newRunner(t, copyInputToOutput, jobs.WithObserver(observer))

	var lines []string
	ctx := services.WithOperation(context.Background(), "thumbnail")
	outputs, err := runner.RunScoped(ctx, jobs.Job{
		Inputs:  map[string][]byte{"in.mp4": []byte("video")},
		Args:    []string{"-i", "in.mp4", "out.jpg"},
		Outputs: []string{"out.jpg"},
		OnLog:   func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("RunScoped returned error: %v", err)
	}
	if string(outputs["out.jpg"]) != "out:video" {
		t.Fatalf("unexpected output: %q", outputs["out.jpg"])
	}
	if len(lines) != 1 || lines[0] != "processing" {
		t.Fatalf("expected log listener to receive lines, got %v", lines)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected virtual filesystem to be empty, got %v", files)
	}
	if logs, _ := fake.Listeners(); logs != 0 {
		t.Fatalf("expected log listener detached, got %d", logs)
	}
	if len(observer.entries) != 1 || observer.entries[0] != "thumbnail:success" {
		t.Fatalf("unexpected observer entries: %v", observer.entries)
	}
}

func TestRunScopedFailureCleansUpAndMarksJobError(t *testing.T) {
	observer := &recordingObserver{}
	runner, fake := newRunner(t, func(_ context.Context, call testsupport.ExecCall) error {
		call.Output("partial.mp4", []byte("half"))
		return errors.New("exit status 1")
	}, jobs.WithObserver(observer))

	_, err := runner.RunScoped(context.Background(), jobs.Job{
		Inputs:  map[string][]byte{"in.mp4": []byte("video")},
		Args:    []string{"-i", "in.mp4", "partial.mp4"},
		Outputs: []string{"partial.mp4"},
	})
	if !errors.Is(err, services.ErrJob) {
		t.Fatalf("expected ErrJob, got %v", err)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected cleanup after failure, got %v", files)
	}
	if len(observer.entries) != 1 || observer.entries[0] != "job:failure" {
		t.Fatalf("unexpected observer entries: %v", observer.entries)
	}
}

func TestRunScopedExpectFailure(t *testing.T) {
	runner, fake := newRunner(t, func(_ context.Context, call testsupport.ExecCall) error {
		call.Log("  Duration: 00:00:05.00")
		return errors.New("At least one output file must be specified")
	})

	var lines []string
	outputs, err := runner.RunScoped(context.Background(), jobs.Job{
		Inputs:        map[string][]byte{"probe.mp4": []byte("video")},
		Args:          []string{"-i", "probe.mp4"},
		ExpectFailure: true,
		OnLog:         func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("expected failure to be swallowed, got %v", err)
	}
	if len(outputs) != 0 {
		t.Fatalf("expected no outputs, got %v", outputs)
	}
	if len(lines) != 1 {
		t.Fatalf("expected diagnostic line delivered, got %v", lines)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected cleanup, got %v", files)
	}
}

func TestRunScopedExpectFailureDoesNotSwallowCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner, fake := newRunner(t, func(context.Context, testsupport.ExecCall) error {
		cancel()
		return errors.New("killed")
	})

	_, err := runner.RunScoped(ctx, jobs.Job{
		Inputs:        map[string][]byte{"probe.mp4": []byte("video")},
		Args:          []string{"-i", "probe.mp4"},
		ExpectFailure: true,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected cleanup after cancellation, got %v", files)
	}
}

func TestRunScopedMissingOutput(t *testing.T) {
	runner, fake := newRunner(t, nil)
	_, err := runner.RunScoped(context.Background(), jobs.Job{
		Inputs:  map[string][]byte{"in.mp4": []byte("video")},
		Args:    []string{"-i", "in.mp4", "out.wav"},
		Outputs: []string{"out.wav"},
	})
	if !errors.Is(err, services.ErrJob) {
		t.Fatalf("expected ErrJob for missing output, got %v", err)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected cleanup, got %v", files)
	}
}

func TestRunScopedRequiresReadyEngine(t *testing.T) {
	factory := &testsupport.FakeFactory{}
	manager := engine.NewManager(&testsupport.StaticFetcher{}, factory.Build, nil)
	runner := jobs.NewRunner(manager, nil)

	_, err := runner.RunScoped(context.Background(), jobs.Job{Args: []string{"-version"}})
	if !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if len(factory.Built()) != 0 {
		t.Fatal("runner must not trigger engine construction")
	}
}

func TestWithScopeSharesInputAcrossCommands(t *testing.T) {
	runner, fake := newRunner(t, copyInputToOutput)

	var seenDuring []string
	var results []string
	err := runner.WithScope(context.Background(), map[string][]byte{"src.mp4": []byte("v")}, func(scope *jobs.Scope) error {
		for _, out := range []string{"a.mp4", "b.mp4"} {
			if err := scope.Exec([]string{"-i", "src.mp4", out}, nil); err != nil {
				return err
			}
			data, err := scope.Read(out)
			if err != nil {
				return err
			}
			results = append(results, string(data))
			if err := scope.Delete(out); err != nil {
				return err
			}
			seenDuring = append(seenDuring, fake.Files()...)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithScope returned error: %v", err)
	}
	if len(results) != 2 || results[0] != "out:v" || results[1] != "out:v" {
		t.Fatalf("unexpected results: %v", results)
	}
	for _, name := range seenDuring {
		if name != "src.mp4" {
			t.Fatalf("expected only the shared source to persist between commands, saw %q", name)
		}
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected source deleted after scope, got %v", files)
	}
	if calls := fake.Calls(); len(calls) != 2 {
		t.Fatalf("expected two commands, got %d", len(calls))
	}
}

func TestWithScopeCleansUpOnCallbackError(t *testing.T) {
	runner, fake := newRunner(t, copyInputToOutput)
	boom := errors.New("boom")
	err := runner.WithScope(context.Background(), map[string][]byte{"src.mp4": []byte("v")}, func(scope *jobs.Scope) error {
		if err := scope.Exec([]string{"-i", "src.mp4", "x.mp4"}, nil); err != nil {
			return err
		}
		scope.Track("x.mp4")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if files := fake.Files(); len(files) != 0 {
		t.Fatalf("expected cleanup after callback error, got %v", files)
	}
}
