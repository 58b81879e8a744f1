package monitor

import (
	"radio-nowplaying/scraper"
	"radio-nowplaying/storage"
)

// HasChanged reports whether c differs from the last known state. Only the track text
// is compared; the rule tag is diagnostic.
func HasChanged(prev *storage.TrackState, c scraper.Candidate) bool {
	if prev == nil {
		return true
	}
	return c.Text != prev.Track
}
