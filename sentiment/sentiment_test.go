package sentiment

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func ev(asset string, at time.Duration, raw, rel float64) market.NewsEvent {
	return market.NewsEvent{Time: t0.Add(at), Asset: asset, RawSentiment: raw, Relevance: rel}
}

func TestImpactClamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.4, Impact(ev("A", 0, 0.8, 0.5)))
	assert.Equal(t, 1.0, Impact(ev("A", 0, 0.9, 3)))
	assert.Equal(t, -1.0, Impact(ev("A", 0, -2, 1)))
	assert.Equal(t, 0.0, Impact(ev("A", 0, math.NaN(), 1)))
}

func TestApplyRecurrence(t *testing.T) {
	t.Parallel()

	hl := 2 * day
	s := Apply(State{}, ev("A", 0, 0.8, 1), hl)
	assert.Equal(t, 0.8, s.Score, "first event takes its impact")

	// One half-life later: 0.8*0.5 + (-0.4)*0.5
	s = Apply(s, ev("A", 2*day, -0.4, 1), hl)
	assert.InDelta(t, 0.2, s.Score, 1e-12)
	assert.Equal(t, t0.Add(2*day), s.At)

	// Older events leave the state untouched.
	same := Apply(s, ev("A", day, 1, 1), hl)
	assert.Equal(t, s, same)
}

func TestSteadyInputHoldsScore(t *testing.T) {
	t.Parallel()

	var s State
	for i := 0; i < 10; i++ {
		s = Apply(s, ev("A", time.Duration(i)*day, 0.6, 1), 3*day)
	}
	assert.InDelta(t, 0.6, s.Score, 1e-12)
}

func TestSilenceDecaysTowardZero(t *testing.T) {
	t.Parallel()

	hl := 5 * day
	s := Apply(State{}, ev("A", 0, 1, 0.8), hl)

	assert.InDelta(t, 0.8, Decay(s, t0, hl), 1e-12)
	assert.InDelta(t, 0.4, Decay(s, t0.Add(hl), hl), 1e-12)
	assert.InDelta(t, 0.2, Decay(s, t0.Add(2*hl), hl), 1e-12)
	assert.Less(t, Decay(s, t0.Add(100*hl), hl), 1e-12)

	assert.Equal(t, 0.0, Decay(State{}, t0, hl))
	assert.Equal(t, 0.0, Decay(s, t0.Add(-time.Hour), hl))
}

func TestReplayIsDeterministic(t *testing.T) {
	t.Parallel()

	events := []market.NewsEvent{
		ev("A", 3*day, -0.5, 0.7),
		ev("A", 0, 0.9, 1),
		ev("A", day, 0.2, 0.3),
		ev("A", 10*day, 1, 1), // after asOf
	}
	asOf := t0.Add(5 * day)

	first := Replay(events, asOf, 2*day)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Replay(events, asOf, 2*day))
	}

	// Input order does not matter.
	reversed := []market.NewsEvent{events[3], events[2], events[1], events[0]}
	assert.Equal(t, first, Replay(reversed, asOf, 2*day))

	// The caller's slice is not reordered.
	assert.Equal(t, t0.Add(3*day), events[0].Time)

	assert.Equal(t, 0.0, Replay(nil, asOf, 2*day))
}

func TestSeriesMatchesReplay(t *testing.T) {
	t.Parallel()

	events := []market.NewsEvent{
		ev("A", 36*time.Hour, 0.9, 1),
		ev("A", 4*day, -0.6, 0.5),
		ev("A", 4*day+time.Hour, 0.3, 1),
	}
	var times []time.Time
	for i := 0; i < 10; i++ {
		times = append(times, t0.Add(time.Duration(i)*day))
	}

	got := Series(events, times, 3*day, 0)
	require.Len(t, got, len(times))
	for i, at := range times {
		assert.InDelta(t, Replay(events, at, 3*day), got[i], 1e-12, "bar %d", i)
	}
	assert.Equal(t, 0.0, got[0], "no history yet reads neutral")
	assert.Equal(t, 0.0, got[1])
}

func TestSeriesNoiseFloor(t *testing.T) {
	t.Parallel()

	events := []market.NewsEvent{ev("A", 0, 0.05, 1)}
	times := []time.Time{t0, t0.Add(10 * day)}

	got := Series(events, times, day, 0.01)
	assert.Equal(t, 0.05, got[0])
	assert.Equal(t, 0.0, got[1])
}

func TestHalfLifeChangesScores(t *testing.T) {
	t.Parallel()

	events := []market.NewsEvent{ev("A", 0, 1, 1), ev("A", 2*day, -1, 0.5)}
	times := []time.Time{t0.Add(day), t0.Add(3 * day), t0.Add(6 * day)}

	fast := Series(events, times, day, 0)
	slow := Series(events, times, 10*day, 0)
	assert.NotEqual(t, fast, slow)
}

func TestSeriesForAsset(t *testing.T) {
	t.Parallel()

	events := []market.NewsEvent{ev("A", 0, 1, 1), ev("B", 0, -1, 1)}
	got := SeriesForAsset(events, "B", []time.Time{t0}, day, 0)
	assert.Equal(t, []float64{-1}, got)
}

func TestAggregator(t *testing.T) {
	t.Parallel()

	agg, err := NewAggregator(2*day, WithNoiseFloor(0.01))
	require.NoError(t, err)

	require.NoError(t, agg.Update(ev("A", 0, 0.8, 1)))
	require.NoError(t, agg.Update(ev("A", 2*day, -0.4, 1)))

	assert.InDelta(t, 0.2, agg.Score("A", t0.Add(2*day)), 1e-12)
	assert.InDelta(t, 0.1, agg.Score("A", t0.Add(4*day)), 1e-12)

	// Reading in the past replays history instead of using the latest state.
	assert.InDelta(t, 0.4, agg.Score("A", t0.Add(2*day-time.Nanosecond)), 1e-6)

	err = agg.Update(ev("A", day, 1, 1))
	assert.ErrorIs(t, err, ErrOutOfOrder)

	assert.Equal(t, 0.0, agg.Score("unknown", t0))
	assert.False(t, agg.State("unknown").Seen)
	assert.True(t, agg.State("A").Seen)
	assert.ElementsMatch(t, []string{"A"}, agg.Assets())
}

func TestAggregatorConcurrentAssets(t *testing.T) {
	t.Parallel()

	agg, err := NewAggregator(day)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for a := 0; a < 8; a++ {
		asset := fmt.Sprintf("A%d", a)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = agg.Update(ev(asset, time.Duration(i)*time.Hour, 0.5, 1))
			}
		}()
	}
	wg.Wait()

	for a := 0; a < 8; a++ {
		assert.InDelta(t, 0.5, agg.Score(fmt.Sprintf("A%d", a), t0.Add(49*time.Hour)), 1e-12)
	}
}

func TestAggregatorConfig(t *testing.T) {
	t.Parallel()

	_, err := NewAggregator(0)
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = NewAggregator(-time.Hour)
	assert.ErrorIs(t, err, config.ErrInvalid)

	agg, err := FromConfig(config.DefaultSentiment())
	require.NoError(t, err)
	assert.Equal(t, 120*time.Hour, agg.HalfLife())

	_, err = FromConfig(config.SentimentConfig{HalfLife: "0s"})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSizer(t *testing.T) {
	t.Parallel()

	z := Sizer{MinScore: 0.2, BaseWeight: 1, Scale: 1}
	assert.Equal(t, 0.0, z.Weight(0.1))
	assert.InDelta(t, 0.6, z.Weight(0.2), 1e-12)
	assert.Equal(t, 1.0, z.Weight(1))

	d := DefaultSizer()
	assert.Equal(t, 0.5, d.Weight(0))
	assert.Equal(t, 0.0, d.Weight(-1))

	lev := Sizer{MinScore: -1, BaseWeight: 2, Scale: 1, AllowLeverage: true}
	assert.Equal(t, 2.0, lev.Weight(1))
	capped := Sizer{MinScore: -1, BaseWeight: 2, Scale: 1}
	assert.Equal(t, 1.0, capped.Weight(1))

	fromCfg := SizerFromConfig(config.DefaultSentiment())
	assert.Equal(t, d, fromCfg)

	c := config.DefaultSentiment()
	c.BaseWeight = 2
	c.AllowLeverage = true
	assert.Equal(t, 2.0, SizerFromConfig(c).Weight(1))
	c.AllowLeverage = false
	assert.Equal(t, 1.0, SizerFromConfig(c).Weight(1))
}
