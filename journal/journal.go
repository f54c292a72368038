// Package journal persists backtest output: trade ledgers, equity curves,
// run summaries and validated strategy sources.
package journal

import (
	"time"
)

// TradeRecord is one fill as written to a journal.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Asset      string
	Side       string
	Quantity   float64
	Price      float64
	Commission float64
	Slippage   float64
	SignalTime time.Time
	Time       time.Time
	Reason     string
}

// EquitySnapshot is one mark of the portfolio at a bar close.
type EquitySnapshot struct {
	RunID         string
	Time          time.Time
	Cash          float64
	PositionValue float64
	Equity        float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
