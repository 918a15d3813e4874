package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"framepress/internal/config"
)

// LogFileName is the log file written under the configured log directory.
const LogFileName = "framepress.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// OutputPaths may name files or the streams "stdout" and "stderr".
	// Empty means stderr.
	OutputPaths []string
	Development bool
}

// New builds a logger writing to every distinct output in opts. Caller
// locations are attached in development mode and at debug level.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(levelFromString(opts.Level))
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	var build func(io.Writer, slog.Leveler, bool) slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		build = func(w io.Writer, l slog.Leveler, s bool) slog.Handler { return newConsoleHandler(w, l, s) }
	case "json":
		build = jsonHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := outputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	return slog.New(build(out, level, withSource)), nil
}

// NewFromConfig logs to stderr and, when a log directory is configured, to
// LogFileName inside it. Command results on stdout stay clean.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	paths := []string{"stderr"}
	if dir := cfg.Paths.LogDir; dir != "" {
		paths = append(paths, filepath.Join(dir, LogFileName))
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, OutputPaths: paths})
}

func levelFromString(raw string) slog.Level {
	var level slog.Level
	normalized := strings.TrimSpace(raw)
	if strings.EqualFold(normalized, "warning") {
		normalized = "warn"
	}
	if err := level.UnmarshalText([]byte(normalized)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func outputs(paths []string) (io.Writer, error) {
	var writers []io.Writer
	var files []*os.File
	seen := make(map[string]bool, len(paths))
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		w, err := openOutput(path)
		if err != nil {
			for _, f := range files {
				_ = f.Close()
			}
			return nil, err
		}
		if f, ok := w.(*os.File); ok && f != os.Stdout && f != os.Stderr {
			files = append(files, f)
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openOutput(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
