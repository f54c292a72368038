package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/journal"
	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/safety"
	"github.com/rustyeddy/quantlab/sentiment"
	"github.com/rustyeddy/quantlab/strategies"
)

// loadConfig reads path, or returns defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openJournal opens the journal named by cfg. store is non-nil only for
// SQLite journals, which also hold runs and strategies.
func openJournal(cfg config.JournalConfig) (j journal.Journal, store *journal.SQLite, err error) {
	switch cfg.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
		return j, nil, err
	case "sqlite":
		store, err = journal.NewSQLite(cfg.DBPath)
		return store, store, err
	default:
		return nil, nil, nil
	}
}

// strategySpec says where a run's strategy comes from: a built-in preset,
// or a source file (or stored source) paired with precomputed signals.
type strategySpec struct {
	preset  string
	params  strategies.Params
	name    string
	source  string
	stored  string
	signals string
}

// flagSet is the part of a cobra flag set strategySpec binds to.
type flagSet interface {
	StringVar(p *string, name, value, usage string)
	IntVar(p *int, name string, value int, usage string)
	Float64Var(p *float64, name string, value float64, usage string)
}

func (s *strategySpec) flags(fs flagSet) {
	d := strategies.DefaultParams()
	fs.StringVar(&s.preset, "strategy", "", "built-in strategy preset")
	fs.StringVar(&s.source, "source", "", "strategy source file to validate (use with --signals)")
	fs.StringVar(&s.stored, "stored", "", "strategy stored in the SQLite journal (use with --signals)")
	fs.StringVar(&s.name, "name", "", "strategy name for --source (default: file name)")
	fs.StringVar(&s.signals, "signals", "", "CSV of precomputed signals (time,signal)")
	fs.IntVar(&s.params.Window, "window", d.Window, "ma-trend/bollinger: window")
	fs.IntVar(&s.params.Fast, "fast", d.Fast, "ema-cross/ema-adx: fast EMA period")
	fs.IntVar(&s.params.Slow, "slow", d.Slow, "ema-cross/ema-adx: slow EMA period")
	fs.IntVar(&s.params.Period, "period", d.Period, "rsi: period")
	fs.Float64Var(&s.params.Lower, "lower", d.Lower, "rsi: oversold level")
	fs.Float64Var(&s.params.Upper, "upper", d.Upper, "rsi: overbought level")
	fs.Float64Var(&s.params.K, "k", d.K, "bollinger: band width in standard deviations")
	fs.IntVar(&s.params.ADXPeriod, "adx-period", d.ADXPeriod, "ema-adx: ADX period")
	fs.Float64Var(&s.params.ADXMin, "adx-min", d.ADXMin, "ema-adx: minimum ADX to trade")
}

// approve resolves s into a validated strategy. Every path goes
// through the safety gate.
func (s *strategySpec) approve(ctx context.Context, v *safety.Validator, store *journal.SQLite) (*safety.Approved, error) {
	switch {
	case s.preset != "":
		return safety.GatePreset(v, s.preset, s.params)

	case s.source != "" || s.stored != "":
		if s.signals == "" {
			return nil, fmt.Errorf("--signals is required with --source or --stored")
		}
		name, src, err := s.loadSource(ctx, store)
		if err != nil {
			return nil, err
		}
		sigs, err := market.ReadSignalsFile(s.signals)
		if err != nil {
			return nil, err
		}
		return safety.Gate(v, name, src, strategies.NewSeries(name, sigs))

	default:
		return nil, fmt.Errorf("one of --strategy, --source or --stored is required (presets: %v)", strategies.Names())
	}
}

func (s *strategySpec) loadSource(ctx context.Context, store *journal.SQLite) (string, string, error) {
	if s.stored != "" {
		if store == nil {
			return "", "", fmt.Errorf("--stored needs a sqlite journal (--db)")
		}
		rec, err := store.GetStrategy(ctx, s.stored)
		if err != nil {
			return "", "", err
		}
		return rec.Name, rec.Source, nil
	}

	data, err := os.ReadFile(s.source)
	if err != nil {
		return "", "", fmt.Errorf("read strategy source: %w", err)
	}
	name := s.name
	if name == "" {
		name = sourceName(s.source)
	}
	return name, string(data), nil
}

// sentimentFor scores bars from a news file. It returns nil when no file is
// given so exposure is left unscaled.
func sentimentFor(path string, c config.SentimentConfig, bars market.BarSet) ([]float64, error) {
	if path == "" {
		return nil, nil
	}
	news, err := market.ReadNewsFile(path)
	if err != nil {
		return nil, err
	}
	hl, err := c.HalfLifeDuration()
	if err != nil {
		return nil, err
	}
	log.Debug().Int("events", len(news)).Dur("half_life", hl).Msg("scoring sentiment")
	return sentiment.SeriesForAsset(news, bars.Asset, bars.Times(), hl, c.NoiseFloor), nil
}

// sourceName is the file name of path without its extension.
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
