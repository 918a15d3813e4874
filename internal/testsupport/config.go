package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"framepress/internal/config"
)

// ConfigOption adjusts a config produced by NewConfig. root is the temp
// directory the config's paths live under.
type ConfigOption func(t testing.TB, root string, cfg *config.Config)

// NewConfig returns a config whose scratch, log, and runtime locations all sit
// in a fresh temp directory. The runtime base URL is a file:// directory that
// starts empty; WithRuntimeAssets fills it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(root, "scratch")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Runtime.BaseURL = "file://" + filepath.ToSlash(filepath.Join(root, "runtime"))
	cfg.Runtime.Version = "test"
	cfg.Runtime.FetchTimeoutSeconds = 5

	for _, opt := range opts {
		opt(t, root, &cfg)
	}
	return &cfg
}

// WithRuntimeBaseURL points the runtime at url instead of the temp directory.
func WithRuntimeBaseURL(url string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Runtime.BaseURL = url
	}
}

// WithRuntimeAssets publishes core and backend under the config's versioned
// file:// runtime directory.
func WithRuntimeAssets(core, backend []byte) ConfigOption {
	return func(t testing.TB, root string, cfg *config.Config) {
		t.Helper()
		dir := filepath.Join(root, "runtime", cfg.Runtime.Version)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create runtime dir: %v", err)
		}
		assets := map[string][]byte{
			cfg.Runtime.CoreAsset:    core,
			cfg.Runtime.BackendAsset: backend,
		}
		for name, data := range assets {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				t.Fatalf("publish %s: %v", name, err)
			}
		}
	}
}

// BaseDir returns the temp directory a NewConfig config was rooted in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}
