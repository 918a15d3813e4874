package media

import (
	"path/filepath"
	"strings"
)

// Declared media types of produced artifacts.
const (
	TypeJPEG = "image/jpeg"
	TypeWAV  = "audio/wav"
	TypeMP4  = "video/mp4"
)

// Video is a caller-supplied source video held in memory.
type Video struct {
	// Filename is the caller's name for the video; only its extension is used.
	Filename string
	Data     []byte
}

// Empty reports whether the video carries no bytes.
func (v Video) Empty() bool {
	return len(v.Data) == 0
}

// Extension returns the lower-cased extension of Filename including the dot,
// or ".bin" when none is present.
func (v Video) Extension() string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(v.Filename)))
	if ext == "" || ext == "." || strings.ContainsAny(ext, `/\`) {
		return ".bin"
	}
	return ext
}

// Artifact is an encoded output whose ownership passes to the caller.
type Artifact struct {
	Data      []byte
	MediaType string
}

// Size returns the artifact length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}
