package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

// SQLite is a Journal backed by a single database file. Writes are
// serialised so concurrent runs can share one journal.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, asset, side, quantity, price, commission, slippage, signal_time, time, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Asset, t.Side, t.Quantity, t.Price,
		t.Commission, t.Slippage, t.SignalTime.UTC(), t.Time.UTC(), t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, position_value, equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Cash, e.PositionValue, e.Equity,
	)
	return err
}

// RecordRun stores a run summary and, when present, its risk percentiles.
func (j *SQLite) RecordRun(ctx context.Context, r RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	created := r.Created
	if created.IsZero() {
		created = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, created, strategy, asset, dataset, config, start_time, end_time, bars,
		 initial_cash, terminal_equity, total_return, cagr, max_drawdown, sharpe,
		 trades, round_trips, wins, losses, win_rate, profit_factor, halted, halt_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, created.UTC(), r.Strategy, r.Asset, r.Dataset, r.Config,
		r.Start.UTC(), r.End.UTC(), r.Bars,
		r.InitialCash, r.TerminalEquity, r.TotalReturn, r.CAGR, r.MaxDrawdown, r.Sharpe,
		r.Trades, r.RoundTrips, r.Wins, r.Losses, r.WinRate, r.ProfitFactor,
		r.Halted, r.HaltReason,
	)
	if err != nil {
		return fmt.Errorf("journal: insert run %s: %w", r.RunID, err)
	}

	if r.Risk != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO risk
			(run_id, trials, var_percentile, var, p5, p50, p95, median_max_drawdown)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Risk.Trials, r.Risk.VaRPercentile, r.Risk.VaR,
			r.Risk.P5, r.Risk.P50, r.Risk.P95, r.Risk.MedianMaxDrawdown,
		)
		if err != nil {
			return fmt.Errorf("journal: insert risk %s: %w", r.RunID, err)
		}
	}
	return tx.Commit()
}

// GetRun loads a run summary and its risk percentiles, if any.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	var r RunRecord
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, strategy, asset, dataset, config, start_time, end_time, bars,
		       initial_cash, terminal_equity, total_return, cagr, max_drawdown, sharpe,
		       trades, round_trips, wins, losses, win_rate, profit_factor, halted, halt_reason
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Asset, &r.Dataset, &r.Config,
		&r.Start, &r.End, &r.Bars,
		&r.InitialCash, &r.TerminalEquity, &r.TotalReturn, &r.CAGR, &r.MaxDrawdown, &r.Sharpe,
		&r.Trades, &r.RoundTrips, &r.Wins, &r.Losses, &r.WinRate, &r.ProfitFactor,
		&r.Halted, &r.HaltReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	if err != nil {
		return RunRecord{}, err
	}

	var rs RiskSummary
	err = j.db.QueryRowContext(ctx, `
		SELECT trials, var_percentile, var, p5, p50, p95, median_max_drawdown
		FROM risk WHERE run_id = ?`, runID).Scan(
		&rs.Trials, &rs.VaRPercentile, &rs.VaR, &rs.P5, &rs.P50, &rs.P95, &rs.MedianMaxDrawdown,
	)
	switch {
	case err == nil:
		r.Risk = &rs
	case !errors.Is(err, sql.ErrNoRows):
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns run summaries, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]RunRecord, 0, len(ids))
	for _, id := range ids {
		r, err := j.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ExportRunOrg loads a run and returns its Org block with the trade list.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	org, err := r.Org()
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return org, nil
	}
	return org + "\n" + FormatTradesOrg(trades) + "\n", nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
