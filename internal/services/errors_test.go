package services_test

import (
	"errors"
	"strings"
	"testing"

	"framepress/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrJob, "jobs", "exec", "command failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrJob) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"jobs", "exec", "command failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "initialization", err: services.Wrap(services.ErrInitialization, "engine", "load", "fetch failed", errors.New("dns")), want: true},
		{name: "not ready", err: services.Wrap(services.ErrNotReady, "engine", "do", "", nil), want: true},
		{name: "job", err: services.Wrap(services.ErrJob, "jobs", "exec", "", nil), want: false},
		{name: "validation", err: services.Wrap(services.ErrValidation, "transcoder", "thumbnail", "empty input", nil), want: false},
		{name: "plain", err: errors.New("other"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsRetryable(tt.err); got != tt.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
