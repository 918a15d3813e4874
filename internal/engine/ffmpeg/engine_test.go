package ffmpeg

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"framepress/internal/engine"
	"framepress/internal/testsupport"
)

// stubCore behaves like a tiny ffmpeg: it answers -version, reports a
// duration and two time= updates, copies the -i input to the final argument,
// and fails when an argument equals "fail".
const stubCore = `
prev=""
in=""
last=""
for a in "$@"; do
  if [ "$a" = "-version" ]; then echo "ffmpeg version 7.1-stub"; exit 0; fi
  if [ "$a" = "fail" ]; then echo "Error opening output" >&2; exit 1; fi
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  last="$a"
done
echo "cwd=$(pwd)" >&2
echo "lib=$LD_LIBRARY_PATH" >&2
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 8 kb/s" >&2
printf 'frame=1 time=00:00:05.00 bitrate=1\r' >&2
echo "frame=2 time=00:00:10.00 bitrate=1" >&2
if [ -n "$in" ] && [ "$last" != "$in" ]; then cat "$in" > "$last"; fi
exit 0
`

func newTestEngine(t *testing.T, core string) *Engine {
	t.Helper()
	eng, err := New(Options{ScratchDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	if core != "" {
		assets := engine.Assets{Core: testsupport.ShellScript(core), Backend: []byte("lib")}
		if err := eng.Initialize(context.Background(), assets); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}
	}
	return eng
}

func TestNewCreatesLockedSandbox(t *testing.T) {
	eng := newTestEngine(t, "")
	for _, dir := range []string{eng.sandbox.fsRoot, eng.sandbox.runtime} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected sandbox dir %s: %v", dir, err)
		}
	}
	if !strings.HasPrefix(filepath.Base(eng.Dir()), sandboxPrefix) {
		t.Fatalf("unexpected sandbox name %q", eng.Dir())
	}
	if !eng.sandbox.lock.Locked() {
		t.Fatal("expected sandbox lock to be held")
	}
}

func TestNewRequiresScratchDir(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without scratch dir")
	}
}

func TestInitializeStagesRuntimeAndReportsProgress(t *testing.T) {
	eng := newTestEngine(t, "")
	var ratios []float64
	unsubscribe := eng.OnProgress(func(p engine.Progress) { ratios = append(ratios, p.Ratio) })
	defer unsubscribe()

	assets := engine.Assets{Core: testsupport.ShellScript(stubCore), Backend: []byte("lib")}
	if err := eng.Initialize(context.Background(), assets); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(eng.sandbox.runtime, coreBinaryName))
	if err != nil {
		t.Fatalf("stat core: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected core to be executable, mode %v", info.Mode())
	}
	backend, err := os.ReadFile(filepath.Join(eng.sandbox.runtime, defaultBackend))
	if err != nil || string(backend) != "lib" {
		t.Fatalf("expected staged backend, got %q (%v)", backend, err)
	}
	if len(ratios) == 0 || ratios[len(ratios)-1] != 1 {
		t.Fatalf("expected progress to end at 1, got %v", ratios)
	}
}

func TestInitializeFailsVerification(t *testing.T) {
	eng := newTestEngine(t, "")
	assets := engine.Assets{Core: testsupport.ShellScript("echo broken >&2\nexit 3\n"), Backend: []byte("lib")}
	err := eng.Initialize(context.Background(), assets)
	if err == nil || !strings.Contains(err.Error(), "verify runtime") {
		t.Fatalf("expected verification error, got %v", err)
	}
	if err := eng.WriteFile("a.mp4", []byte("x")); err == nil {
		t.Fatal("expected file operations to fail before successful initialize")
	}
}

func TestInitializeRejectsEmptyAssets(t *testing.T) {
	eng := newTestEngine(t, "")
	if err := eng.Initialize(context.Background(), engine.Assets{Backend: []byte("lib")}); err == nil {
		t.Fatal("expected error for empty core")
	}
	if err := eng.Initialize(context.Background(), engine.Assets{Core: []byte("core")}); err == nil {
		t.Fatal("expected error for empty backend")
	}
}

func TestVirtualFilesystem(t *testing.T) {
	eng := newTestEngine(t, stubCore)

	if err := eng.WriteFile("in.mp4", []byte("video")); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	data, err := eng.ReadFile("in.mp4")
	if err != nil || string(data) != "video" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}
	if err := eng.DeleteFile("in.mp4"); err != nil {
		t.Fatalf("DeleteFile returned error: %v", err)
	}
	if _, err := eng.ReadFile("in.mp4"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
	if err := eng.DeleteFile("in.mp4"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist deleting missing file, got %v", err)
	}

	for _, name := range []string{"", ".", "..", "../escape", "dir/file", `dir\file`} {
		if err := eng.WriteFile(name, []byte("x")); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("WriteFile(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestExecStreamsLogsAndProgress(t *testing.T) {
	eng := newTestEngine(t, stubCore)
	if err := eng.WriteFile("in.mp4", []byte("payload")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var lines []string
	var ratios []float64
	stopLogs := eng.OnLog(func(line string) { lines = append(lines, line) })
	stopProgress := eng.OnProgress(func(p engine.Progress) { ratios = append(ratios, p.Ratio) })

	if err := eng.Exec(context.Background(), []string{"-i", "in.mp4", "out.mp4"}); err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	stopLogs()
	stopProgress()

	out, err := eng.ReadFile("out.mp4")
	if err != nil || string(out) != "payload" {
		t.Fatalf("expected output copied from input, got %q (%v)", out, err)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "cwd="+eng.sandbox.fsRoot) {
		t.Fatalf("expected command to run in fs dir, logs: %q", joined)
	}
	if !strings.Contains(joined, "lib="+eng.sandbox.runtime) {
		t.Fatalf("expected backend on library path, logs: %q", joined)
	}
	if !strings.Contains(joined, "Duration: 00:00:10.00") {
		t.Fatalf("expected duration line, logs: %q", joined)
	}
	var sawCarriageReturnLine bool
	for _, line := range lines {
		if strings.HasPrefix(line, "frame=1") {
			sawCarriageReturnLine = true
		}
	}
	if !sawCarriageReturnLine {
		t.Fatalf("expected \\r-terminated progress line as its own log line: %q", lines)
	}
	if len(ratios) != 2 || ratios[0] != 0.5 || ratios[1] != 1 {
		t.Fatalf("unexpected progress ratios: %v", ratios)
	}

	eng.emitLog("after unsubscribe")
	if lines[len(lines)-1] == "after unsubscribe" {
		t.Fatal("expected listener to be detached")
	}
}

func TestExecFailureIncludesStderrTail(t *testing.T) {
	eng := newTestEngine(t, stubCore)
	err := eng.Exec(context.Background(), []string{"-i", "in.mp4", "fail"})
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "Error opening output") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
}

func TestExecHonoursContext(t *testing.T) {
	eng := newTestEngine(t, "if [ \"$1\" = \"-version\" ]; then exit 0; fi\nexec sleep 5\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := eng.Exec(ctx, []string{"-i", "in.mp4"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCloseRemovesSandboxAndIsIdempotent(t *testing.T) {
	eng := newTestEngine(t, stubCore)
	root := eng.Dir()
	if err := eng.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if _, err := os.Stat(root); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected sandbox removed, stat err %v", err)
	}
	if err := eng.Exec(context.Background(), []string{"-i", "x"}); err == nil {
		t.Fatal("expected Exec to fail after Close")
	}
}

func TestSweepStaleRemovesAbandonedSandboxes(t *testing.T) {
	scratch := t.TempDir()

	live, err := New(Options{ScratchDir: scratch})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer live.Close()

	stale := filepath.Join(scratch, sandboxPrefix+"stale")
	if err := os.MkdirAll(filepath.Join(stale, fsDirName), 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stale, lockFileName), nil, 0o644); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}
	fresh := filepath.Join(scratch, sandboxPrefix+"fresh")
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		t.Fatalf("mkdir fresh: %v", err)
	}
	unrelated := filepath.Join(scratch, "keep-me")
	if err := os.MkdirAll(unrelated, 0o755); err != nil {
		t.Fatalf("mkdir unrelated: %v", err)
	}

	removed, err := SweepStale(scratch, nil)
	if err != nil {
		t.Fatalf("SweepStale returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one stale sandbox removed, got %d", removed)
	}
	if _, err := os.Stat(stale); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected stale sandbox removed, stat err %v", err)
	}
	for _, dir := range []string{live.Dir(), fresh, unrelated} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %s to survive sweep: %v", dir, err)
		}
	}
}

func TestSweepStaleMissingScratch(t *testing.T) {
	removed, err := SweepStale(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil || removed != 0 {
		t.Fatalf("expected no-op for missing scratch, got %d %v", removed, err)
	}
}

func TestInspectSandboxesCountsWithoutRemoving(t *testing.T) {
	scratch := t.TempDir()

	live, err := New(Options{ScratchDir: scratch})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer live.Close()

	stale := filepath.Join(scratch, sandboxPrefix+"stale")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stale, lockFileName), nil, 0o644); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}

	summary, err := InspectSandboxes(scratch)
	if err != nil {
		t.Fatalf("InspectSandboxes returned error: %v", err)
	}
	if summary.Live != 1 || summary.Stale != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("expected stale sandbox left in place: %v", err)
	}
	if !live.sandbox.lock.Locked() {
		t.Fatal("inspection must not disturb the live lock")
	}
}

func TestProgressTracker(t *testing.T) {
	tracker := &progressTracker{}
	if _, ok := tracker.observe("frame=1 time=00:00:01.00"); ok {
		t.Fatal("expected no ratio before duration is known")
	}
	tracker.observe("  Duration: 00:01:40.00, start: 0")
	ratio, ok := tracker.observe("frame=10 time=00:00:25.00 bitrate=1")
	if !ok || ratio != 0.25 {
		t.Fatalf("expected 0.25, got %v %v", ratio, ok)
	}
	if _, ok := tracker.observe("frame=10 time=00:00:20.00 bitrate=1"); ok {
		t.Fatal("expected regressions to be ignored")
	}
	ratio, ok = tracker.observe("frame=99 time=00:02:00.00 bitrate=1")
	if !ok || ratio != 1 {
		t.Fatalf("expected clamp to 1, got %v %v", ratio, ok)
	}
}

func TestScanLogLines(t *testing.T) {
	data := []byte("a\rb\nc")
	var tokens []string
	for len(data) > 0 {
		advance, token, err := scanLogLines(data, true)
		if err != nil {
			t.Fatalf("scanLogLines error: %v", err)
		}
		tokens = append(tokens, string(token))
		data = data[advance:]
	}
	if strings.Join(tokens, ",") != "a,b,c" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}
