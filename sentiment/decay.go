// Package sentiment turns scored news events into a per-asset sentiment
// score that decays toward zero between events.
//
// The functions in this file are pure: a score depends only on the event
// history and the time it is read at. Aggregator adds per-asset locking on
// top for incremental use.
package sentiment

import (
	"math"
	"time"

	"github.com/rustyeddy/quantlab/market"
)

// State is the running score for one asset. The zero value has seen no
// events and reads as neutral.
type State struct {
	Score float64
	At    time.Time
	Seen  bool
}

// Impact is raw sentiment weighted by relevance, clamped to [-1, 1].
func Impact(e market.NewsEvent) float64 {
	v := e.RawSentiment * e.Relevance
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, -1, 1)
}

// factor is 0.5^(dt/halfLife). Negative dt is treated as zero.
func factor(dt, halfLife time.Duration) float64 {
	if dt <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(dt)/float64(halfLife))
}

// Apply folds e into s. The first event sets the score to its impact; later
// events blend in with weight 1-decay. Events older than s.At are ignored.
func Apply(s State, e market.NewsEvent, halfLife time.Duration) State {
	impact := Impact(e)
	if !s.Seen {
		return State{Score: impact, At: e.Time, Seen: true}
	}
	if e.Time.Before(s.At) {
		return s
	}
	d := factor(e.Time.Sub(s.At), halfLife)
	return State{
		Score: clamp(s.Score*d+impact*(1-d), -1, 1),
		At:    e.Time,
		Seen:  true,
	}
}

// Decay reads s at asOf. Silence pulls the score toward zero; an unseen
// state, or asOf before the last event, reads as 0.
func Decay(s State, asOf time.Time, halfLife time.Duration) float64 {
	if !s.Seen || asOf.Before(s.At) {
		return 0
	}
	return s.Score * factor(asOf.Sub(s.At), halfLife)
}

// Replay recomputes the score at asOf from scratch. events need not be
// sorted; ties keep their input order.
func Replay(events []market.NewsEvent, asOf time.Time, halfLife time.Duration) float64 {
	sorted := make([]market.NewsEvent, len(events))
	copy(sorted, events)
	market.SortNews(sorted)

	var s State
	for _, e := range sorted {
		if e.Time.After(asOf) {
			break
		}
		s = Apply(s, e, halfLife)
	}
	return Decay(s, asOf, halfLife)
}

// Series scores each of times, which must be ascending. Scores with
// magnitude below noiseFloor read as 0. It runs in one pass over both inputs.
func Series(events []market.NewsEvent, times []time.Time, halfLife time.Duration, noiseFloor float64) []float64 {
	sorted := make([]market.NewsEvent, len(events))
	copy(sorted, events)
	market.SortNews(sorted)

	out := make([]float64, len(times))
	var s State
	next := 0
	for i, t := range times {
		for next < len(sorted) && !sorted[next].Time.After(t) {
			s = Apply(s, sorted[next], halfLife)
			next++
		}
		out[i] = filter(Decay(s, t, halfLife), noiseFloor)
	}
	return out
}

// SeriesForAsset is Series over the events that belong to asset.
func SeriesForAsset(events []market.NewsEvent, asset string, times []time.Time, halfLife time.Duration, noiseFloor float64) []float64 {
	return Series(market.NewsFor(events, asset), times, halfLife, noiseFloor)
}

func filter(v, floor float64) float64 {
	if math.Abs(v) < floor {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
