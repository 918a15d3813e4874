package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"framepress/internal/engine"
	"framepress/internal/fileutil"
	"framepress/internal/logging"
)

var commandContext = exec.CommandContext

const (
	coreBinaryName   = "ffmpeg"
	defaultBackend   = "libffmpeg-backend.so"
	stderrTailLines  = 12
	maxLogLineLength = 1 << 20
)

// Options configures a process engine.
type Options struct {
	// ScratchDir is the root under which sandboxes are created.
	ScratchDir string
	// BackendName is the file name the backend library is staged as.
	BackendName string
	Logger      *slog.Logger
}

// Engine runs ffmpeg commands inside a private sandbox.
type Engine struct {
	sandbox *sandbox
	backend string
	logger  *slog.Logger

	mu          sync.Mutex
	logs        map[int]func(string)
	progress    map[int]func(engine.Progress)
	nextID      int
	initialized bool
	closed      bool
}

// New creates a sandbox under opts.ScratchDir and returns an uninitialized
// engine bound to it. Stale sandboxes are swept first.
func New(opts Options) (*Engine, error) {
	scratch := strings.TrimSpace(opts.ScratchDir)
	if scratch == "" {
		return nil, errors.New("ffmpeg engine: scratch directory required")
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("ffmpeg engine: create scratch dir: %w", err)
	}
	logger := logging.NewComponentLogger(opts.Logger, "ffmpeg")
	if removed, err := SweepStale(scratch, opts.Logger); err != nil {
		logger.Warn("stale sandbox sweep failed", logging.Error(err))
	} else if removed > 0 {
		logger.Info("removed stale sandboxes", logging.Int("count", removed))
	}

	sb, err := createSandbox(scratch)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg engine: %w", err)
	}
	backend := strings.TrimSpace(opts.BackendName)
	if backend == "" {
		backend = defaultBackend
	}
	return &Engine{
		sandbox:  sb,
		backend:  backend,
		logger:   logger.With(logging.String("sandbox", filepath.Base(sb.root))),
		logs:     map[int]func(string){},
		progress: map[int]func(engine.Progress){},
	}, nil
}

// Factory returns an engine.Factory building process engines with opts.
func Factory(opts Options) engine.Factory {
	return func() (engine.Engine, error) {
		return New(opts)
	}
}

// Dir returns the sandbox root.
func (e *Engine) Dir() string {
	return e.sandbox.root
}

// Initialize stages the runtime payload and verifies the core executable.
func (e *Engine) Initialize(ctx context.Context, assets engine.Assets) error {
	if len(assets.Core) == 0 {
		return errors.New("ffmpeg engine: core asset is empty")
	}
	if len(assets.Backend) == 0 {
		return errors.New("ffmpeg engine: backend asset is empty")
	}
	if err := e.checkOpen(false); err != nil {
		return err
	}

	e.emitProgress(0.1)
	corePath := filepath.Join(e.sandbox.runtime, coreBinaryName)
	if err := fileutil.WriteFileAtomic(corePath, assets.Core, 0o755); err != nil {
		return fmt.Errorf("stage core: %w", err)
	}
	if err := fileutil.VerifyFile(corePath, fileutil.Checksum(assets.Core)); err != nil {
		return fmt.Errorf("stage core: %w", err)
	}
	e.emitProgress(0.4)

	if err := fileutil.WriteFileAtomic(filepath.Join(e.sandbox.runtime, e.backend), assets.Backend, 0o644); err != nil {
		return fmt.Errorf("stage backend: %w", err)
	}
	e.emitProgress(0.7)

	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := e.command(ctx, "-version")
	output, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("verify runtime: %w: %s", err, strings.TrimSpace(string(output)))
	}
	version := firstLine(output)
	e.emitProgress(1)

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()

	e.logger.Debug("runtime staged",
		logging.String("version", version),
		logging.Int("core_bytes", len(assets.Core)),
		logging.Int("backend_bytes", len(assets.Backend)),
	)
	return nil
}

func (e *Engine) WriteFile(name string, data []byte) error {
	path, err := e.filePath(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (e *Engine) ReadFile(name string) ([]byte, error) {
	path, err := e.filePath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (e *Engine) DeleteFile(name string) error {
	path, err := e.filePath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Exec runs ffmpeg with args inside the virtual filesystem. Every stderr line
// is delivered to log listeners before Exec returns.
func (e *Engine) Exec(ctx context.Context, args []string) error {
	if err := e.checkOpen(true); err != nil {
		return err
	}

	full := append([]string{"-hide_banner", "-nostdin"}, args...)
	cmd := e.command(ctx, full...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	tracker := &progressTracker{}
	tail := make([]string, 0, stderrTailLines)
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineLength)
	scanner.Split(scanLogLines)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(tail) == stderrTailLines {
			tail = tail[1:]
		}
		tail = append(tail, line)
		e.emitLog(line)
		if ratio, ok := tracker.observe(line); ok {
			e.emitProgress(ratio)
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", strings.Join(args, " "), waitErr, strings.Join(tail, " | "))
	}
	if scanErr != nil {
		return fmt.Errorf("read ffmpeg output: %w", scanErr)
	}
	return nil
}

func (e *Engine) OnLog(listener func(string)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.logs[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.logs, id)
	}
}

func (e *Engine) OnProgress(listener func(engine.Progress)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.progress[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.progress, id)
	}
}

// Close removes the sandbox and releases its lock. Calling it again is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.logs = map[int]func(string){}
	e.progress = map[int]func(engine.Progress){}
	e.mu.Unlock()

	if err := e.sandbox.remove(); err != nil {
		return fmt.Errorf("remove sandbox: %w", err)
	}
	e.logger.Debug("sandbox removed")
	return nil
}

func (e *Engine) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := commandContext(ctx, filepath.Join(e.sandbox.runtime, coreBinaryName), args...) //nolint:gosec
	cmd.Dir = e.sandbox.fsRoot
	libraryPath := e.sandbox.runtime
	if existing := os.Getenv("LD_LIBRARY_PATH"); existing != "" {
		libraryPath += string(os.PathListSeparator) + existing
	}
	cmd.Env = append(os.Environ(), "LD_LIBRARY_PATH="+libraryPath, "PWD="+e.sandbox.fsRoot)
	return cmd
}

func (e *Engine) filePath(name string) (string, error) {
	if err := e.checkOpen(true); err != nil {
		return "", err
	}
	return e.sandbox.path(name)
}

func (e *Engine) checkOpen(requireInit bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("ffmpeg engine: closed")
	}
	if requireInit && !e.initialized {
		return errors.New("ffmpeg engine: not initialized")
	}
	return nil
}

func (e *Engine) emitLog(line string) {
	e.mu.Lock()
	listeners := make([]func(string), 0, len(e.logs))
	for _, id := range sortedIDs(e.logs) {
		listeners = append(listeners, e.logs[id])
	}
	e.mu.Unlock()
	for _, listener := range listeners {
		listener(line)
	}
}

func (e *Engine) emitProgress(ratio float64) {
	e.mu.Lock()
	listeners := make([]func(engine.Progress), 0, len(e.progress))
	for _, id := range sortedIDs(e.progress) {
		listeners = append(listeners, e.progress[id])
	}
	e.mu.Unlock()
	for _, listener := range listeners {
		listener(engine.Progress{Ratio: ratio})
	}
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// scanLogLines splits on \n and \r so carriage-return progress updates
// surface as individual lines.
func scanLogLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func firstLine(output []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line)
}

var _ engine.Engine = (*Engine)(nil)
