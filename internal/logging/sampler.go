package logging

// ProgressSampler thins engine load progress down to the updates worth a log
// line: the first update of each phase, and any update that enters a new
// step-sized band of the 0-100 range.
type ProgressSampler struct {
	step  int
	phase string
	band  int
}

// NewProgressSampler returns a sampler with the given band width in percent.
// Non-positive widths fall back to 5.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, band: -1}
}

// Sample reports whether the update should be logged. Negative percentages
// mean unknown progress and only a phase change can make them loggable. A nil
// sampler logs everything.
func (s *ProgressSampler) Sample(percent int, phase string) bool {
	if s == nil {
		return true
	}
	phaseChanged := phase != "" && phase != s.phase
	if phaseChanged {
		s.phase = phase
		s.band = -1
	}
	if percent < 0 {
		return phaseChanged
	}
	band := min(percent, 100) / s.step
	if band <= s.band {
		return phaseChanged
	}
	s.band = band
	return true
}

// Reset forgets the last phase and band, for a fresh engine load.
func (s *ProgressSampler) Reset() {
	if s != nil {
		*s = ProgressSampler{step: s.step, band: -1}
	}
}
