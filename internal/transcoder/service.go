package transcoder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/uuid"

	"framepress/internal/config"
	"framepress/internal/engine"
	"framepress/internal/engine/ffmpeg"
	"framepress/internal/jobs"
	"framepress/internal/ladder"
	"framepress/internal/logging"
	"framepress/internal/media"
	"framepress/internal/metrics"
	"framepress/internal/payload"
	"framepress/internal/probe"
	"framepress/internal/services"
)

// Operation labels stamped on the context of each public call.
const (
	OpEnsureReady   = "ensure_ready"
	OpThumbnail     = "thumbnail"
	OpDuration      = "duration"
	OpResolution    = "resolution"
	OpProbe         = "probe"
	OpExtractAudio  = "extract_audio"
	OpQualityLadder = "quality_ladder"
)

// Audio extraction parameters: mono 16 kHz signed 16-bit PCM.
const (
	audioChannels   = "1"
	audioSampleRate = "16000"
	audioCodec      = "pcm_s16le"
)

// Service is the entry point for media operations.
type Service struct {
	manager *engine.Manager
	runner  *jobs.Runner
	prober  *probe.Prober
	ladder  *ladder.Transcoder
	logger  *slog.Logger
}

type options struct {
	jobObserver  jobs.Observer
	tierObserver ladder.Observer
	metrics      bool
}

// Option customises the Service.
type Option func(*options)

// WithJobObserver reports every scoped job outcome to observer.
func WithJobObserver(observer jobs.Observer) Option {
	return func(o *options) {
		o.jobObserver = observer
	}
}

// WithTierObserver reports every ladder tier outcome to observer.
func WithTierObserver(observer ladder.Observer) Option {
	return func(o *options) {
		o.tierObserver = observer
	}
}

// WithMetrics records engine, job and tier metrics in the default Prometheus
// registry. Explicit observers take precedence.
func WithMetrics() Option {
	return func(o *options) {
		o.metrics = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics {
		if o.jobObserver == nil {
			o.jobObserver = metrics.JobObserver{}
		}
		if o.tierObserver == nil {
			o.tierObserver = metrics.TierObserver{}
		}
	}
	return o
}

// New builds a service around manager. The manager stays unloaded until the
// first operation.
func New(manager *engine.Manager, logger *slog.Logger, opts ...Option) *Service {
	o := buildOptions(opts)
	logger = logging.NewComponentLogger(logger, "transcoder")

	runner := jobs.NewRunner(manager, logger, jobs.WithObserver(o.jobObserver))
	prober := probe.NewProber(runner, logger)
	return &Service{
		manager: manager,
		runner:  runner,
		prober:  prober,
		ladder:  ladder.NewTranscoder(runner, prober, logger, ladder.WithObserver(o.tierObserver)),
		logger:  logger,
	}
}

// NewFromConfig wires the runtime payload fetcher and the ffmpeg process
// engine described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcoder", "new", "config is nil", nil)
	}
	o := buildOptions(opts)

	fetcher := payload.New(cfg, logger)
	factory := ffmpeg.Factory(ffmpeg.Options{
		ScratchDir:  cfg.Paths.ScratchDir,
		BackendName: cfg.Runtime.BackendAsset,
		Logger:      logger,
	})
	var managerOpts []engine.Option
	if o.metrics {
		managerOpts = append(managerOpts, engine.WithObserver(metrics.EngineObserver{}))
	}
	manager := engine.NewManager(fetcher, factory, logger, managerOpts...)
	return New(manager, logger, opts...), nil
}

// Status returns the engine lifecycle snapshot.
func (s *Service) Status() engine.Status {
	return s.manager.Status()
}

// EnsureReady loads the engine if it is not already ready.
func (s *Service) EnsureReady(ctx context.Context) error {
	return s.manager.EnsureReady(services.WithOperation(ctx, OpEnsureReady))
}

// Release drops the engine. The next operation loads it again.
func (s *Service) Release() {
	s.manager.Release()
}

// GenerateThumbnail renders the frame at atSeconds as a JPEG scaled to
// targetWidth, keeping the aspect ratio.
func (s *Service) GenerateThumbnail(ctx context.Context, video media.Video, atSeconds float64, targetWidth int) (media.Artifact, error) {
	if err := validateVideo(OpThumbnail, video); err != nil {
		return media.Artifact{}, err
	}
	if math.IsNaN(atSeconds) || math.IsInf(atSeconds, 0) || atSeconds < 0 {
		return media.Artifact{}, services.Wrap(services.ErrValidation, "transcoder", OpThumbnail,
			fmt.Sprintf("seek position %v must be a non-negative number of seconds", atSeconds), nil)
	}
	if targetWidth <= 0 {
		return media.Artifact{}, services.Wrap(services.ErrValidation, "transcoder", OpThumbnail,
			fmt.Sprintf("target width %d must be positive", targetWidth), nil)
	}

	ctx, err := s.prepare(ctx, OpThumbnail)
	if err != nil {
		return media.Artifact{}, err
	}
	id := uuid.NewString()
	input := "thumb-src-" + id + video.Extension()
	output := "thumb-" + id + ".jpg"
	outputs, err := s.runner.RunScoped(ctx, jobs.Job{
		Inputs: map[string][]byte{input: video.Data},
		Args: []string{
			"-ss", strconv.FormatFloat(atSeconds, 'f', -1, 64),
			"-i", input,
			"-frames:v", "1",
			"-vf", "scale=" + strconv.Itoa(targetWidth) + ":-1",
			output,
		},
		Outputs: []string{output},
	})
	if err != nil {
		return media.Artifact{}, err
	}
	artifact := media.Artifact{Data: outputs[output], MediaType: media.TypeJPEG}
	logging.WithContext(ctx, s.logger).Info("thumbnail generated",
		logging.Float64("at_seconds", atSeconds),
		logging.Int("width", targetWidth),
		logging.Int("bytes", artifact.Size()),
	)
	return artifact, nil
}

// GetDuration returns the duration in whole seconds, or 0 when unknown.
func (s *Service) GetDuration(ctx context.Context, video media.Video) (int, error) {
	if err := validateVideo(OpDuration, video); err != nil {
		return 0, err
	}
	ctx, err := s.prepare(ctx, OpDuration)
	if err != nil {
		return 0, err
	}
	return s.prober.Duration(ctx, video)
}

// GetResolution returns the frame size, or zeros when unknown.
func (s *Service) GetResolution(ctx context.Context, video media.Video) (probe.Resolution, error) {
	if err := validateVideo(OpResolution, video); err != nil {
		return probe.Resolution{}, err
	}
	ctx, err := s.prepare(ctx, OpResolution)
	if err != nil {
		return probe.Resolution{}, err
	}
	return s.prober.Resolution(ctx, video)
}

// Probe returns duration and resolution from a single invocation.
func (s *Service) Probe(ctx context.Context, video media.Video) (probe.Result, error) {
	if err := validateVideo(OpProbe, video); err != nil {
		return probe.Result{}, err
	}
	ctx, err := s.prepare(ctx, OpProbe)
	if err != nil {
		return probe.Result{}, err
	}
	return s.prober.Probe(ctx, video)
}

// ExtractAudio returns the audio track as a mono 16 kHz PCM16 WAV.
func (s *Service) ExtractAudio(ctx context.Context, video media.Video) (media.Artifact, error) {
	if err := validateVideo(OpExtractAudio, video); err != nil {
		return media.Artifact{}, err
	}
	ctx, err := s.prepare(ctx, OpExtractAudio)
	if err != nil {
		return media.Artifact{}, err
	}
	id := uuid.NewString()
	input := "audio-src-" + id + video.Extension()
	output := "audio-" + id + ".wav"
	outputs, err := s.runner.RunScoped(ctx, jobs.Job{
		Inputs: map[string][]byte{input: video.Data},
		Args: []string{
			"-i", input,
			"-vn",
			"-ac", audioChannels,
			"-ar", audioSampleRate,
			"-c:a", audioCodec,
			output,
		},
		Outputs: []string{output},
	})
	if err != nil {
		return media.Artifact{}, err
	}
	artifact := media.Artifact{Data: outputs[output], MediaType: media.TypeWAV}
	logging.WithContext(ctx, s.logger).Info("audio extracted", logging.Int("bytes", artifact.Size()))
	return artifact, nil
}

// GenerateQualityLadder encodes every applicable tier in catalog order.
// listener may be nil. A failed tier discards the renditions produced so far
// and returns a *ladder.TierError.
func (s *Service) GenerateQualityLadder(ctx context.Context, video media.Video, listener ladder.ProgressListener) ([]ladder.Rendition, error) {
	if err := validateVideo(OpQualityLadder, video); err != nil {
		return nil, err
	}
	ctx, err := s.prepare(ctx, OpQualityLadder)
	if err != nil {
		return nil, err
	}
	renditions, err := s.ladder.Generate(ctx, video, listener)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("quality ladder failed", logging.Error(err))
		return nil, err
	}
	return renditions, nil
}

// prepare labels ctx with the operation and a job id, then loads the engine.
func (s *Service) prepare(ctx context.Context, operation string) (context.Context, error) {
	ctx = services.WithOperation(ctx, operation)
	ctx, _ = services.EnsureJobID(ctx)
	if err := s.manager.EnsureReady(ctx); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func validateVideo(operation string, video media.Video) error {
	if video.Empty() {
		return services.Wrap(services.ErrValidation, "transcoder", operation, "video is empty", nil)
	}
	return nil
}
