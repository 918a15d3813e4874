package ladder

import "strconv"

// Tier is one rendition of the ladder.
type Tier struct {
	Name         string
	TargetHeight int
	Bitrate      string
}

// Catalog lists every tier, tallest first.
var Catalog = []Tier{
	{Name: "1080p", TargetHeight: 1080, Bitrate: "5000k"},
	{Name: "720p", TargetHeight: 720, Bitrate: "2500k"},
	{Name: "480p", TargetHeight: 480, Bitrate: "1000k"},
	{Name: "360p", TargetHeight: 360, Bitrate: "600k"},
}

// floorTier is always included regardless of source height.
const floorTier = "360p"

// SelectTiers returns the catalog tiers a source of the given height should
// be encoded to, in catalog order.
func SelectTiers(sourceHeight int) []Tier {
	selected := make([]Tier, 0, len(Catalog))
	for _, tier := range Catalog {
		if sourceHeight >= tier.TargetHeight || tier.Name == floorTier {
			selected = append(selected, tier)
		}
	}
	return selected
}

// Args returns the encoder arguments rendering src into out for this tier.
func (t Tier) Args(src, out string) []string {
	return []string{
		"-i", src,
		"-vf", "scale=-2:" + strconv.Itoa(t.TargetHeight),
		"-c:v", "libx264",
		"-b:v", t.Bitrate,
		"-preset", "ultrafast",
		"-c:a", "copy",
		"-movflags", "+faststart",
		out,
	}
}
