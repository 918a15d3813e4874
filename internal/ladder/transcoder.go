package ladder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"framepress/internal/jobs"
	"framepress/internal/logging"
	"framepress/internal/media"
	"framepress/internal/probe"
)

// ProgressListener is notified before each tier starts. index is 1-based.
type ProgressListener interface {
	OnTierStart(index, total int, name string)
}

// ProgressFunc adapts a function to ProgressListener.
type ProgressFunc func(index, total int, name string)

// OnTierStart implements ProgressListener.
func (f ProgressFunc) OnTierStart(index, total int, name string) {
	f(index, total, name)
}

// Rendition is one encoded tier.
type Rendition struct {
	Tier     Tier
	Artifact media.Artifact
}

// TierError reports the tier at which a ladder failed.
type TierError struct {
	Index int
	Total int
	Tier  string
	Err   error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("quality ladder failed at tier %d of %d (%s): %v", e.Index, e.Total, e.Tier, e.Err)
}

func (e *TierError) Unwrap() error {
	return e.Err
}

// Observer receives per-tier outcomes.
type Observer interface {
	TierFinished(tier string, ok bool)
}

// ScopeRunner is the subset of jobs.Runner the transcoder needs.
type ScopeRunner interface {
	WithScope(ctx context.Context, inputs map[string][]byte, fn func(*jobs.Scope) error) error
}

// ResolutionProber is the subset of probe.Prober the transcoder needs.
type ResolutionProber interface {
	Resolution(ctx context.Context, video media.Video) (probe.Resolution, error)
}

// Transcoder builds quality ladders. The engine must be ready.
type Transcoder struct {
	runner   ScopeRunner
	prober   ResolutionProber
	logger   *slog.Logger
	observer Observer
}

// Option customises the Transcoder.
type Option func(*Transcoder)

// WithObserver registers a tier observer.
func WithObserver(observer Observer) Option {
	return func(t *Transcoder) {
		t.observer = observer
	}
}

// NewTranscoder constructs a ladder transcoder.
func NewTranscoder(runner ScopeRunner, prober ResolutionProber, logger *slog.Logger, opts ...Option) *Transcoder {
	t := &Transcoder{
		runner: runner,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "ladder"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Generate probes the source height, selects tiers, and encodes each in
// catalog order. listener may be nil. On failure no renditions are returned
// and the error is a *TierError when a tier command failed.
func (t *Transcoder) Generate(ctx context.Context, video media.Video, listener ProgressListener) ([]Rendition, error) {
	resolution, err := t.prober.Resolution(ctx, video)
	if err != nil {
		return nil, err
	}
	tiers := SelectTiers(resolution.Height)
	logger := logging.WithContext(ctx, t.logger)
	logger.Info("quality ladder selected",
		logging.String("source", resolution.String()),
		logging.Int("tiers", len(tiers)),
	)

	src := "ladder-src-" + uuid.NewString() + video.Extension()
	renditions := make([]Rendition, 0, len(tiers))
	err = t.runner.WithScope(ctx, map[string][]byte{src: video.Data}, func(scope *jobs.Scope) error {
		for i, tier := range tiers {
			index := i + 1
			if listener != nil {
				listener.OnTierStart(index, len(tiers), tier.Name)
			}
			data, err := t.encodeTier(scope, tier, src)
			t.tierFinished(tier.Name, err == nil)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return &TierError{Index: index, Total: len(tiers), Tier: tier.Name, Err: err}
			}
			renditions = append(renditions, Rendition{
				Tier:     tier,
				Artifact: media.Artifact{Data: data, MediaType: media.TypeMP4},
			})
			logger.Debug("tier encoded",
				logging.String(logging.FieldTier, tier.Name),
				logging.Int("index", index),
				logging.Int("bytes", len(data)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renditions, nil
}

func (t *Transcoder) encodeTier(scope *jobs.Scope, tier Tier, src string) ([]byte, error) {
	out := "ladder-" + tier.Name + "-" + uuid.NewString() + ".mp4"
	scope.Track(out)
	if err := scope.Exec(tier.Args(src, out), nil); err != nil {
		return nil, err
	}
	data, err := scope.Read(out)
	if err != nil {
		return nil, err
	}
	if err := scope.Delete(out); err != nil {
		return nil, err
	}
	return data, nil
}

func (t *Transcoder) tierFinished(tier string, ok bool) {
	if t.observer != nil {
		t.observer.TierFinished(tier, ok)
	}
}
