package probe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationPattern   = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)
	resolutionPattern = regexp.MustCompile(`\b(\d{2,5})x(\d{2,5})\b`)
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// IsZero reports whether no resolution was found.
func (r Resolution) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// ParseDuration extracts whole seconds from a "Duration: HH:MM:SS(.frac)"
// line. Fractions round to the nearest second, ties to even, so 90.5 becomes
// 90 and 10.75 becomes 11.
func ParseDuration(line string) (int, bool) {
	match := durationPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	total := float64(hours*3600 + minutes*60 + seconds)
	if match[4] != "" {
		fraction, err := strconv.ParseFloat("0."+match[4], 64)
		if err == nil {
			total += fraction
		}
	}
	return int(math.RoundToEven(total)), true
}

// ParseResolution extracts the first WIDTHxHEIGHT token from a video stream
// description line.
func ParseResolution(line string) (Resolution, bool) {
	if !strings.Contains(line, "Video:") {
		return Resolution{}, false
	}
	match := resolutionPattern.FindStringSubmatch(line)
	if match == nil {
		return Resolution{}, false
	}
	width, err := strconv.Atoi(match[1])
	if err != nil {
		return Resolution{}, false
	}
	height, err := strconv.Atoi(match[2])
	if err != nil {
		return Resolution{}, false
	}
	return Resolution{Width: width, Height: height}, true
}
