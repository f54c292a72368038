package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")
	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	return j, tradesPath, equityPath
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{tradeHeader}, readCSV(t, tradesPath))
	assert.Equal(t, [][]string{equityHeader}, readCSV(t, equityPath))
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	signal := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	fill := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:      "R1",
		TradeID:    "T1",
		Asset:      "SPY",
		Side:       "buy",
		Quantity:   0.05,
		Price:      1000.5,
		Commission: 1,
		Slippage:   0.025,
		SignalTime: signal,
		Time:       fill,
		Reason:     "signal",
	}))
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:    "R1",
		TradeID:  "T2",
		Asset:    "SPY",
		Side:     "sell",
		Quantity: 0.05,
		Price:    0.5,
		Time:     fill,
		Reason:   "liquidation",
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"R1", "T1", "SPY", "buy",
		"0.050000", "1000.500000", "1.000000", "0.025000",
		signal.Format(time.RFC3339), fill.Format(time.RFC3339), "signal",
	}, rows[1])
	assert.Equal(t, "", rows[2][8], "liquidations have no signal time")
}

func TestCSVJournalRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newTestCSV(t)

	ts := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "R1", Time: ts, Cash: 400.1, PositionValue: 599.9, Equity: 1000}))
	require.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"R1", ts.Format(time.RFC3339), "400.100000", "599.900000", "1000.000000"}, rows[1])
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "t.csv"), "e.csv")
	assert.Error(t, err)
}
