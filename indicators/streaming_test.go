package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allIndicators() []Indicator {
	return []Indicator{
		NewMA(3),
		NewEMA(3),
		NewATR(3),
		NewRSI(3),
		NewADX(3),
		NewBollinger(3, 2),
	}
}

func TestReadyExactlyAtWarmup(t *testing.T) {
	bars := createTestBars()
	for _, ind := range allIndicators() {
		t.Run(ind.Name(), func(t *testing.T) {
			n := ind.Warmup()
			require.LessOrEqual(t, n, len(bars))

			for i := 0; i < n-1; i++ {
				ind.Update(bars[i])
			}
			assert.False(t, ind.Ready())
			assert.Zero(t, ind.Value())

			ind.Update(bars[n-1])
			assert.True(t, ind.Ready())
		})
	}
}

func TestResetReplaysIdentically(t *testing.T) {
	bars := createTestBars()
	for _, ind := range allIndicators() {
		t.Run(ind.Name(), func(t *testing.T) {
			first := Feed(ind, bars)
			Feed(ind, bars[:4])
			assert.Equal(t, first, Feed(ind, bars))
		})
	}
}

func TestStreamingMatchesBatch(t *testing.T) {
	bars := createTestBars()
	ma, ema := NewMA(4), NewEMA(4)

	for i, b := range bars {
		ma.Update(b)
		ema.Update(b)
		if i < 3 {
			continue
		}
		want, err := MA(bars[:i+1], 4)
		require.NoError(t, err)
		assert.InDelta(t, want, ma.Value(), 1e-9, "MA at bar %d", i)

		want, err = EMA(bars[:i+1], 4)
		require.NoError(t, err)
		assert.InDelta(t, want, ema.Value(), 1e-9, "EMA at bar %d", i)
	}
}

func TestMARingWraps(t *testing.T) {
	ma := NewMA(2)
	for _, b := range closes(1, 2, 3, 4, 5) {
		ma.Update(b)
	}
	assert.InDelta(t, 4.5, ma.Value(), 1e-12)
}

func TestNonPositivePeriodClamped(t *testing.T) {
	assert.Equal(t, 1, NewMA(0).Warmup())
	assert.Equal(t, 1, NewEMA(-3).Warmup())
	assert.Equal(t, 2, NewATR(0).Warmup())
}

func TestATRStreaming(t *testing.T) {
	atr := NewATR(3)
	for _, b := range createTestBars()[:4] {
		atr.Update(b)
	}
	// True ranges 6, 4, 5.
	assert.InDelta(t, 5.0, atr.Value(), 1e-9)
}
