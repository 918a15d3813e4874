package ffmpeg

import (
	"regexp"
	"strconv"
)

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	timePattern     = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// progressTracker derives a completion ratio from ffmpeg's stderr: the first
// Duration line gives the input length and each time= update the position.
type progressTracker struct {
	total float64
	last  float64
}

func (p *progressTracker) observe(line string) (float64, bool) {
	if p.total == 0 {
		if seconds, ok := parseClock(durationPattern, line); ok && seconds > 0 {
			p.total = seconds
		}
		return 0, false
	}
	position, ok := parseClock(timePattern, line)
	if !ok {
		return 0, false
	}
	ratio := position / p.total
	if ratio > 1 {
		ratio = 1
	}
	if ratio <= p.last {
		return 0, false
	}
	p.last = ratio
	return ratio, true
}

func parseClock(pattern *regexp.Regexp, line string) (float64, bool) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}
