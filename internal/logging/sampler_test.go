package logging

import "testing"

func TestProgressSamplerDefaultsStep(t *testing.T) {
	for _, step := range []int{0, -3} {
		if got := NewProgressSampler(step).step; got != 5 {
			t.Fatalf("NewProgressSampler(%d).step = %d, want 5", step, got)
		}
	}
}

func TestProgressSamplerNilLogsEverything(t *testing.T) {
	var s *ProgressSampler
	if !s.Sample(50, "fetch") {
		t.Fatal("nil sampler should log every update")
	}
	s.Reset()
}

func TestProgressSamplerBandsAndPhases(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent int
		phase   string
		want    bool
	}{
		{0, "fetch", true},
		{5, "fetch", false},
		{10, "fetch", true},
		{19, "fetch", false},
		{50, "compile", true},
		{55, "compile", false},
		{100, "compile", true},
		{120, "compile", false},
		{-1, "compile", false},
		{-1, "init", true},
	}
	for i, step := range steps {
		if got := s.Sample(step.percent, step.phase); got != step.want {
			t.Fatalf("step %d (%d %q): got %v want %v", i, step.percent, step.phase, got, step.want)
		}
	}

	s.Reset()
	if !s.Sample(0, "fetch") {
		t.Fatal("expected a log line after reset")
	}
}
