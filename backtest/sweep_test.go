package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepKeepsOrder(t *testing.T) {
	t.Parallel()

	bars := barsOf([]float64{100, 101, 102, 103, 104, 105})
	signals := []float64{0, 1, 1, 0, -1, 0}

	runs := []SweepRun{
		{Name: "target", Config: frictionless(10000, sizing(1)), Bars: bars, Strategy: approved(t, bars, signals...)},
		{Name: "latch", Config: frictionless(10000, latch, sizing(1)), Bars: bars, Strategy: approved(t, bars, signals...)},
		{Name: "small", Config: frictionless(100, sizing(1)), Bars: bars, Strategy: approved(t, bars, signals...)},
	}

	out, err := Sweep(context.Background(), runs, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, day(4), out[0].Trades[1].Time)
	assert.Equal(t, day(5), out[1].Trades[1].Time)
	assert.Equal(t, 100.0, out[2].InitialCash)
	assert.NotEqual(t, out[0].RunID, out[1].RunID)
}

func TestSweepRejectsSharedStrategy(t *testing.T) {
	t.Parallel()

	bars := barsOf([]float64{1, 2, 3})
	a := approved(t, bars, 1, 1, 1)
	_, err := Sweep(context.Background(), []SweepRun{
		{Name: "a", Config: frictionless(100), Bars: bars, Strategy: a},
		{Name: "b", Config: frictionless(100), Bars: bars, Strategy: a},
	}, 4)
	assert.Error(t, err)
}

func TestSweepReturnsFirstError(t *testing.T) {
	t.Parallel()

	bars := barsOf([]float64{1, 2, 3})
	_, err := Sweep(context.Background(), []SweepRun{
		{Name: "ok", Config: frictionless(100), Bars: bars, Strategy: approved(t, bars, 1, 1, 1)},
		{Name: "broken", Config: frictionless(0), Bars: bars, Strategy: approved(t, bars, 1, 1, 1)},
	}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
