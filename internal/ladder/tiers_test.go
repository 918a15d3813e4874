package ladder

import (
	"slices"
	"strings"
	"testing"
)

func tierNames(tiers []Tier) []string {
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = tier.Name
	}
	return names
}

func TestSelectTiers(t *testing.T) {
	tests := []struct {
		height int
		want   []string
	}{
		{2160, []string{"1080p", "720p", "480p", "360p"}},
		{1080, []string{"1080p", "720p", "480p", "360p"}},
		{1079, []string{"720p", "480p", "360p"}},
		{720, []string{"720p", "480p", "360p"}},
		{480, []string{"480p", "360p"}},
		{479, []string{"360p"}},
		{240, []string{"360p"}},
		{0, []string{"360p"}},
	}
	for _, tt := range tests {
		if got := tierNames(SelectTiers(tt.height)); !slices.Equal(got, tt.want) {
			t.Fatalf("SelectTiers(%d) = %v, want %v", tt.height, got, tt.want)
		}
	}
}

func TestTierArgs(t *testing.T) {
	args := Catalog[1].Args("src.mp4", "out.mp4")
	want := "-i src.mp4 -vf scale=-2:720 -c:v libx264 -b:v 2500k -preset ultrafast -c:a copy -movflags +faststart out.mp4"
	if got := strings.Join(args, " "); got != want {
		t.Fatalf("Args() = %q, want %q", got, want)
	}
}
