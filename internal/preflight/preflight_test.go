package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framepress/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckRuntimeSource_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/rt/ffmpeg":
			w.Header().Set("Content-Length", "42")
			w.WriteHeader(http.StatusOK)
		case "/rt/nohead":
			w.WriteHeader(http.StatusMethodNotAllowed)
		case "/rt/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		path   string
		passed bool
		detail string
	}{
		{"/rt/ffmpeg", true, "42 bytes"},
		{"/rt/nohead", true, "HEAD not allowed"},
		{"/rt/missing", false, "not found"},
		{"/rt/broken", false, "500"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := CheckRuntimeSource(context.Background(), srv.Client(), "core", srv.URL+tt.path)
			if result.Passed != tt.passed {
				t.Fatalf("expected passed=%v, got %+v", tt.passed, result)
			}
			if !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("expected detail containing %q, got %q", tt.detail, result.Detail)
			}
		})
	}
}

func TestCheckRuntimeSource_File(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(core, []byte("core"), 0o755); err != nil {
		t.Fatal(err)
	}

	if result := CheckRuntimeSource(context.Background(), nil, "core", "file://"+core); !result.Passed {
		t.Fatalf("expected pass for present file, got: %s", result.Detail)
	}
	if result := CheckRuntimeSource(context.Background(), nil, "core", "file://"+filepath.Join(dir, "gone")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckRuntimeSource_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com/ffmpeg", "no-scheme"} {
		if result := CheckRuntimeSource(context.Background(), nil, "core", raw); result.Passed {
			t.Fatalf("expected failure for %q", raw)
		}
	}
}

func TestCheckLocalAssets(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRuntimeAssets([]byte("core"), []byte("backend")))
	statuses := CheckLocalAssets(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected two local assets, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("expected %s available, got %s", status.Name, status.Detail)
		}
	}

	remote := testsupport.NewConfig(t, testsupport.WithRuntimeBaseURL("https://cdn.example.com/rt"))
	if statuses := CheckLocalAssets(remote); statuses != nil {
		t.Fatalf("expected no local assets for remote source, got %v", statuses)
	}
}

func TestProbeSandboxes(t *testing.T) {
	scratch := t.TempDir()
	if probe := ProbeSandboxes(scratch); probe.Err != nil || probe.Detail() != "No sandboxes" {
		t.Fatalf("unexpected empty probe: %+v %q", probe, probe.Detail())
	}

	stale := filepath.Join(scratch, "engine-abandoned")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, ".lock"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	probe := ProbeSandboxes(scratch)
	if probe.Stale != 1 || probe.Live != 0 {
		t.Fatalf("unexpected probe: %+v", probe)
	}
	if !strings.Contains(probe.Detail(), "1 stale") {
		t.Fatalf("unexpected detail: %q", probe.Detail())
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_LocalRuntime(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRuntimeAssets([]byte("core"), []byte("backend")))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	// scratch + log directories, two runtime assets, sandboxes
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_RemoteRuntimeMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithRuntimeBaseURL(srv.URL))
	results := RunAllWithClient(context.Background(), cfg, srv.Client())
	failed := 0
	for _, r := range results {
		if strings.HasPrefix(r.Name, "Engine core") || strings.HasPrefix(r.Name, "Execution backend") {
			if r.Passed {
				t.Errorf("expected %s to fail against empty server", r.Name)
			}
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected both runtime checks present, got %d", failed)
	}
}
