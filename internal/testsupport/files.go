package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path, with parents, holding size filler bytes (at least
// one). The engines under test only copy bytes, so content is irrelevant.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'B'}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ShellScript prefixes body with a /bin/sh shebang so it can stand in for the
// engine core executable.
func ShellScript(body string) []byte {
	return append([]byte("#!/bin/sh\n"), body...)
}
