package payload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"framepress/internal/config"
	"framepress/internal/engine"
	"framepress/internal/logging"
	"framepress/internal/services"
)

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Blob is a downloaded asset tagged with its declared media type.
type Blob struct {
	URL       string
	MediaType string
	Data      []byte
}

// Asset names one runtime asset to download.
type Asset struct {
	URL       string
	MediaType string
}

// Fetcher resolves and downloads the runtime payload.
type Fetcher struct {
	client  HTTPDoer
	core    Asset
	backend Asset
	timeout time.Duration
	logger  *slog.Logger
}

// Option customises the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout overrides the per-asset download timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// New constructs a fetcher for the runtime assets named by cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Transport: NewTransport()},
		core:    Asset{URL: cfg.CoreURL(), MediaType: cfg.Runtime.CoreMIME},
		backend: Asset{URL: cfg.BackendURL(), MediaType: cfg.Runtime.BackendMIME},
		timeout: cfg.FetchTimeout(),
		logger:  logging.NewComponentLogger(logger, "payload"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewTransport returns an http.Transport that also serves file:// URLs.
func NewTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return transport
}

// Assets returns the core and backend asset locations.
func (f *Fetcher) Assets() (core, backend Asset) {
	return f.core, f.backend
}

// Fetch downloads the core module then the backend. progress receives the
// combined fraction in [0,1]; the core covers the first half.
func (f *Fetcher) Fetch(ctx context.Context, progress func(float64)) (engine.Assets, error) {
	report := func(ratio float64) {
		if progress != nil {
			progress(ratio)
		}
	}

	core, err := f.fetch(ctx, f.core, func(r float64) { report(r / 2) })
	if err != nil {
		return engine.Assets{}, err
	}
	backend, err := f.fetch(ctx, f.backend, func(r float64) { report(0.5 + r/2) })
	if err != nil {
		return engine.Assets{}, err
	}
	report(1)
	return engine.Assets{Core: core.Data, Backend: backend.Data}, nil
}

// FetchBlob downloads a single asset and tags it with mimeType.
func (f *Fetcher) FetchBlob(ctx context.Context, url, mimeType string) (Blob, error) {
	return f.fetch(ctx, Asset{URL: url, MediaType: mimeType}, nil)
}

func (f *Fetcher) fetch(ctx context.Context, asset Asset, progress func(float64)) (Blob, error) {
	url := strings.TrimSpace(asset.URL)
	if url == "" {
		return Blob{}, services.Wrap(services.ErrConfiguration, "payload", "fetch", "asset url is empty", nil)
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Blob{}, services.Wrap(services.ErrConfiguration, "payload", "fetch", "build request for "+url, err)
	}
	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return Blob{}, services.Wrap(services.ErrTransient, "payload", "fetch", "download "+url, err)
	}
	defer resp.Body.Close()

	if err := statusError(url, resp.StatusCode); err != nil {
		return Blob{}, err
	}

	body := io.Reader(resp.Body)
	if progress != nil && resp.ContentLength > 0 {
		body = &progressReader{reader: resp.Body, total: resp.ContentLength, report: progress}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Blob{}, services.Wrap(services.ErrTransient, "payload", "fetch", "read "+url, err)
	}
	if len(data) == 0 {
		return Blob{}, services.Wrap(services.ErrExternalTool, "payload", "fetch", "empty asset at "+url, nil)
	}
	if progress != nil {
		progress(1)
	}

	f.logger.Debug("runtime asset fetched",
		logging.String("url", url),
		logging.String("media_type", asset.MediaType),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Blob{URL: url, MediaType: asset.MediaType, Data: data}, nil
}

func statusError(url string, status int) error {
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrConfiguration, "payload", "fetch", fmt.Sprintf("asset not found at %s", url), nil)
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "payload", "fetch", fmt.Sprintf("%s returned %d", url, status), nil)
	default:
		return services.Wrap(services.ErrExternalTool, "payload", "fetch", fmt.Sprintf("%s returned %d", url, status), nil)
	}
}

type progressReader struct {
	reader io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.read += int64(n)
		ratio := float64(r.read) / float64(r.total)
		if ratio > 1 {
			ratio = 1
		}
		r.report(ratio)
	}
	return n, err
}
