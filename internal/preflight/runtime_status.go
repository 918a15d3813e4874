package preflight

import (
	"fmt"

	"framepress/internal/engine/ffmpeg"
)

// SandboxProbe reports the engine sandboxes currently under the scratch
// directory.
type SandboxProbe struct {
	ScratchDir string
	Live       int
	Stale      int
	Err        error
}

// ProbeSandboxes inspects scratchDir without removing anything.
func ProbeSandboxes(scratchDir string) SandboxProbe {
	summary, err := ffmpeg.InspectSandboxes(scratchDir)
	return SandboxProbe{
		ScratchDir: scratchDir,
		Live:       summary.Live,
		Stale:      summary.Stale,
		Err:        err,
	}
}

// Detail renders a display-friendly summary for status UIs.
func (p SandboxProbe) Detail() string {
	switch {
	case p.Err != nil:
		return fmt.Sprintf("inspect failed (%v)", p.Err)
	case p.Live == 0 && p.Stale == 0:
		return "No sandboxes"
	case p.Stale == 0:
		return fmt.Sprintf("%d live", p.Live)
	default:
		return fmt.Sprintf("%d live, %d stale (removed on next engine load)", p.Live, p.Stale)
	}
}
