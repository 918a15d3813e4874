package media

import "testing"

func TestVideoExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"mp4", "clip.mp4", ".mp4"},
		{"upper case", "CLIP.MOV", ".mov"},
		{"nested path", "uploads/2026/a.webm", ".webm"},
		{"no extension", "clip", ".bin"},
		{"trailing dot", "clip.", ".bin"},
		{"empty", "", ".bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Video{Filename: tt.filename}).Extension(); got != tt.want {
				t.Fatalf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoEmpty(t *testing.T) {
	if !(Video{Filename: "a.mp4"}).Empty() {
		t.Fatal("expected video without data to be empty")
	}
	if (Video{Data: []byte{0}}).Empty() {
		t.Fatal("expected video with data to be non-empty")
	}
}
