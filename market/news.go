package market

import (
	"sort"
	"time"
)

// NewsEvent is one timestamped news item already scored upstream. Relevance
// separates high-impact items (earnings, guidance) from noise.
type NewsEvent struct {
	Time         time.Time
	Asset        string
	Relevance    float64
	RawSentiment float64

	Headline string
	Source   string
}

// SortNews orders events by time, keeping input order for equal timestamps.
func SortNews(events []NewsEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
}

// NewsFor returns the events for asset, sorted by time.
func NewsFor(events []NewsEvent, asset string) []NewsEvent {
	var out []NewsEvent
	for _, e := range events {
		if e.Asset == asset {
			out = append(out, e)
		}
	}
	SortNews(out)
	return out
}
