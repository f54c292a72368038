package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, name := range []string{"runs", "trades", "equity", "risk", "strategies"} {
		assert.True(t, found[name], name)
	}
}

func TestSQLiteRecordTrade(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	signal := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	fill := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	rec := TradeRecord{
		RunID:      "R1",
		TradeID:    "T1",
		Asset:      "SPY",
		Side:       "buy",
		Quantity:   12.3456,
		Price:      101.0505,
		Commission: 1.25,
		Slippage:   0.62,
		SignalTime: signal,
		Time:       fill,
		Reason:     "signal",
	}

	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		runID, tradeID, asset, side, reason string
		qty, price, comm, slip              float64
		signalTime, fillTime                time.Time
	)
	err = db.QueryRow(`
        SELECT run_id, trade_id, asset, side, quantity, price, commission, slippage, signal_time, time, reason
        FROM trades LIMIT 1`).Scan(
		&runID, &tradeID, &asset, &side, &qty, &price, &comm, &slip, &signalTime, &fillTime, &reason,
	)
	require.NoError(t, err)

	assert.Equal(t, "R1", runID)
	assert.Equal(t, "T1", tradeID)
	assert.Equal(t, "SPY", asset)
	assert.Equal(t, "buy", side)
	assert.InDelta(t, rec.Quantity, qty, 1e-9)
	assert.InDelta(t, rec.Price, price, 1e-9)
	assert.InDelta(t, rec.Commission, comm, 1e-9)
	assert.InDelta(t, rec.Slippage, slip, 1e-9)
	assert.True(t, signalTime.Equal(signal))
	assert.True(t, fillTime.Equal(fill))
	assert.Equal(t, "signal", reason)
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	rec := EquitySnapshot{RunID: "R1", Time: ts, Cash: 400.5, PositionValue: 600.25, Equity: 1000.75}
	require.NoError(t, j.RecordEquity(rec))

	got, err := j.ListEquityByRunID(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(ts))
	assert.InDelta(t, rec.Cash, got[0].Cash, 1e-9)
	assert.InDelta(t, rec.PositionValue, got[0].PositionValue, 1e-9)
	assert.InDelta(t, rec.Equity, got[0].Equity, 1e-9)

	none, err := j.ListEquityByRunID(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func sampleRun() RunRecord {
	return RunRecord{
		RunID:          "01RUN",
		Created:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Dataset:        "spy.csv",
		Strategy:       "ma_trend",
		Asset:          "SPY",
		Config:         []byte("initial_cash: 10000\n"),
		Start:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Bars:           104,
		InitialCash:    10000,
		TerminalEquity: 10850,
		TotalReturn:    0.085,
		CAGR:           0.21,
		MaxDrawdown:    0.043,
		Sharpe:         1.4,
		Trades:         6,
		RoundTrips:     3,
		Wins:           2,
		Losses:         1,
		WinRate:        2.0 / 3.0,
		ProfitFactor:   2.5,
	}
}

func TestSQLiteRecordRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	run := sampleRun()
	run.Risk = &RiskSummary{Trials: 1000, VaRPercentile: 5, VaR: 900, P5: 9100, P50: 10800, P95: 12400, MedianMaxDrawdown: 0.06}
	require.NoError(t, j.RecordRun(ctx, run))

	got, err := j.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.Equal(t, run.Asset, got.Asset)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Bars, got.Bars)
	assert.True(t, got.Start.Equal(run.Start))
	assert.True(t, got.End.Equal(run.End))
	assert.InDelta(t, run.TerminalEquity, got.TerminalEquity, 1e-9)
	assert.InDelta(t, run.WinRate, got.WinRate, 1e-9)
	assert.False(t, got.Halted)
	require.NotNil(t, got.Risk)
	assert.Equal(t, 1000, got.Risk.Trials)
	assert.InDelta(t, 9100, got.Risk.P5, 1e-9)

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
}

func TestSQLiteRecordRunHaltedWithoutRisk(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	run := sampleRun()
	run.Halted = true
	run.HaltReason = "bankruptcy"
	require.NoError(t, j.RecordRun(ctx, run))

	got, err := j.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.True(t, got.Halted)
	assert.Equal(t, "bankruptcy", got.HaltReason)
	assert.Nil(t, got.Risk)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStrategies(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	require.NoError(t, j.SaveStrategy(ctx, StrategyRecord{Name: "b", Dialect: "text", Source: "x = 1"}))
	require.NoError(t, j.SaveStrategy(ctx, StrategyRecord{Name: "a", Dialect: "go", Source: "package a"}))
	require.NoError(t, j.SaveStrategy(ctx, StrategyRecord{Name: "b", Dialect: "text", Source: "x = 2"}))

	got, err := j.GetStrategy(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "x = 2", got.Source)
	assert.False(t, got.Updated.Before(got.Created))

	list, err := j.ListStrategies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)

	require.NoError(t, j.DeleteStrategy(ctx, "a"))
	assert.ErrorIs(t, j.DeleteStrategy(ctx, "a"), ErrNotFound)
	_, err = j.GetStrategy(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
