package probe

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"framepress/internal/jobs"
	"framepress/internal/logging"
	"framepress/internal/media"
)

// Result is the outcome of a combined probe. Zero fields mean no diagnostic
// line matched.
type Result struct {
	DurationSeconds int
	Width           int
	Height          int
}

// Resolution returns the probed frame size.
func (r Result) Resolution() Resolution {
	return Resolution{Width: r.Width, Height: r.Height}
}

// JobRunner is the subset of jobs.Runner the prober needs.
type JobRunner interface {
	RunScoped(ctx context.Context, job jobs.Job) (map[string][]byte, error)
}

// Prober runs probe invocations through a job runner. The engine must be
// ready.
type Prober struct {
	runner JobRunner
	logger *slog.Logger
}

// NewProber constructs a prober.
func NewProber(runner JobRunner, logger *slog.Logger) *Prober {
	return &Prober{runner: runner, logger: logging.NewComponentLogger(logger, "probe")}
}

// Duration returns the video's duration in whole seconds, or 0 when the
// encoder reported none.
func (p *Prober) Duration(ctx context.Context, video media.Video) (int, error) {
	result, err := p.probe(ctx, video, true, false)
	return result.DurationSeconds, err
}

// Resolution returns the first video stream's frame size, or zeros when the
// encoder reported none.
func (p *Prober) Resolution(ctx context.Context, video media.Video) (Resolution, error) {
	result, err := p.probe(ctx, video, false, true)
	return result.Resolution(), err
}

// Probe extracts duration and resolution in one invocation.
func (p *Prober) Probe(ctx context.Context, video media.Video) (Result, error) {
	return p.probe(ctx, video, true, true)
}

func (p *Prober) probe(ctx context.Context, video media.Video, wantDuration, wantResolution bool) (Result, error) {
	input := "probe-" + uuid.NewString() + video.Extension()

	var result Result
	haveDuration, haveResolution := false, false
	listener := func(line string) {
		if wantDuration && !haveDuration {
			if seconds, ok := ParseDuration(line); ok {
				result.DurationSeconds = seconds
				haveDuration = true
			}
		}
		if wantResolution && !haveResolution {
			if res, ok := ParseResolution(line); ok {
				result.Width, result.Height = res.Width, res.Height
				haveResolution = true
			}
		}
	}

	_, err := p.runner.RunScoped(ctx, jobs.Job{
		Inputs:        map[string][]byte{input: video.Data},
		Args:          []string{"-i", input},
		ExpectFailure: true,
		OnLog:         listener,
	})
	if err != nil {
		return Result{}, err
	}

	logging.WithContext(ctx, p.logger).Debug("probe finished",
		logging.Int("duration_seconds", result.DurationSeconds),
		logging.Int("width", result.Width),
		logging.Int("height", result.Height),
	)
	return result, nil
}
