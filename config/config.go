package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Signal interpretation modes.
const (
	SignalTarget = "target" // signal is the target exposure
	SignalLatch  = "latch"  // +1 enters, -1 exits, 0 keeps the current stance
)

// Sizing methods.
const (
	SizingFixedPercent = "fixed_percent"
	SizingFixedAmount  = "fixed_amount"
)

// Config represents the complete run configuration. It is loaded once and
// passed by value into constructors; nothing reads it from globals.
type Config struct {
	Account    AccountConfig   `json:"account" yaml:"account"`
	Simulation Simulation      `json:"simulation" yaml:"simulation"`
	Sentiment  SentimentConfig `json:"sentiment" yaml:"sentiment"`
	Risk       RiskConfig      `json:"risk" yaml:"risk"`
	Journal    JournalConfig   `json:"journal" yaml:"journal"`
	Log        LogConfig       `json:"log" yaml:"log"`
	Metrics    MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// Simulation holds the execution engine parameters.
type Simulation struct {
	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	MinCommission  float64 `json:"min_commission" yaml:"min_commission"`
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`
	LongOnly       bool    `json:"long_only" yaml:"long_only"`
	SignalMode     string  `json:"signal_mode" yaml:"signal_mode"`
	SizingMethod   string  `json:"sizing_method" yaml:"sizing_method"`
	SizingTarget   float64 `json:"sizing_target" yaml:"sizing_target"`
	MinExposure    float64 `json:"min_exposure" yaml:"min_exposure"`
	SignalDeadband float64 `json:"signal_deadband" yaml:"signal_deadband"`
	MinEquity      float64 `json:"min_equity" yaml:"min_equity"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
}

// SentimentConfig controls the decay aggregator and sizer.
type SentimentConfig struct {
	HalfLife   string  `json:"half_life" yaml:"half_life"` // e.g. "120h"
	NoiseFloor float64 `json:"noise_floor" yaml:"noise_floor"`
	MinScore   float64 `json:"min_score" yaml:"min_score"`
	BaseWeight float64 `json:"base_weight" yaml:"base_weight"`
	Scale      float64 `json:"scale" yaml:"scale"`

	// AllowLeverage lets sizer weights exceed 1.
	AllowLeverage bool `json:"allow_leverage" yaml:"allow_leverage"`
}

// HalfLifeDuration parses HalfLife.
func (s SentimentConfig) HalfLifeDuration() (time.Duration, error) {
	if s.HalfLife == "" {
		return 0, fmt.Errorf("sentiment.half_life is required: %w", ErrInvalid)
	}
	d, err := time.ParseDuration(s.HalfLife)
	if err != nil {
		return 0, fmt.Errorf("sentiment.half_life %q: %v: %w", s.HalfLife, err, ErrInvalid)
	}
	if d <= 0 {
		return 0, fmt.Errorf("sentiment.half_life must be positive: %w", ErrInvalid)
	}
	return d, nil
}

// RiskConfig controls the Monte Carlo simulator.
type RiskConfig struct {
	Trials        int     `json:"trials" yaml:"trials"`
	VaRPercentile float64 `json:"var_percentile" yaml:"var_percentile"`
	Seed          int64   `json:"seed" yaml:"seed"`
	Workers       int     `json:"workers" yaml:"workers"`

	// Limits checked against the simulated distribution. Zero disables.
	MaxVaRPct   float64 `json:"max_var_pct" yaml:"max_var_pct"`
	MaxDrawdown float64 `json:"max_drawdown" yaml:"max_drawdown"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file. Missing fields keep their
// Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalid)...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return invalid("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return invalid("account.balance must be positive")
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if _, err := c.Sentiment.HalfLifeDuration(); err != nil {
		return err
	}
	if err := c.Sentiment.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return invalid("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return invalid("journal db_path required for SQLite type")
		}
	default:
		return invalid("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Validate checks the engine parameters. InitialCash of zero is allowed here
// because the account balance usually supplies it.
func (s Simulation) Validate() error {
	if s.InitialCash < 0 {
		return invalid("simulation.initial_cash must not be negative")
	}
	if s.CommissionRate < 0 || s.CommissionRate >= 1 {
		return invalid("simulation.commission_rate must be in [0, 1)")
	}
	if s.MinCommission < 0 {
		return invalid("simulation.min_commission must not be negative")
	}
	if s.SlippageRate < 0 || s.SlippageRate >= 1 {
		return invalid("simulation.slippage_rate must be in [0, 1)")
	}
	switch s.SignalMode {
	case SignalTarget, SignalLatch:
	default:
		return invalid("simulation.signal_mode must be %q or %q, got %q", SignalTarget, SignalLatch, s.SignalMode)
	}
	switch s.SizingMethod {
	case SizingFixedPercent:
		if s.SizingTarget <= 0 || s.SizingTarget > 1 {
			return invalid("simulation.sizing_target must be in (0, 1] for fixed_percent")
		}
	case SizingFixedAmount:
		if s.SizingTarget <= 0 {
			return invalid("simulation.sizing_target must be positive for fixed_amount")
		}
	default:
		return invalid("simulation.sizing_method must be %q or %q", SizingFixedPercent, SizingFixedAmount)
	}
	if s.MinExposure < 0 || s.MinExposure >= 1 {
		return invalid("simulation.min_exposure must be in [0, 1)")
	}
	if s.SignalDeadband < 0 || s.SignalDeadband >= 1 {
		return invalid("simulation.signal_deadband must be in [0, 1)")
	}
	if s.MinEquity < 0 {
		return invalid("simulation.min_equity must not be negative")
	}
	if s.PeriodsPerYear <= 0 {
		return invalid("simulation.periods_per_year must be positive")
	}
	return nil
}

func (s SentimentConfig) Validate() error {
	if s.NoiseFloor < 0 || s.NoiseFloor >= 1 {
		return invalid("sentiment.noise_floor must be in [0, 1)")
	}
	if s.MinScore < -1 || s.MinScore > 1 {
		return invalid("sentiment.min_score must be in [-1, 1]")
	}
	if s.BaseWeight < 0 {
		return invalid("sentiment.base_weight must not be negative")
	}
	if s.Scale < 0 {
		return invalid("sentiment.scale must not be negative")
	}
	return nil
}

func (r RiskConfig) Validate() error {
	if r.Trials < 1 {
		return invalid("risk.trials must be at least 1")
	}
	if r.VaRPercentile <= 0 || r.VaRPercentile >= 100 {
		return invalid("risk.var_percentile must be in (0, 100)")
	}
	if r.Workers < 0 {
		return invalid("risk.workers must not be negative")
	}
	if r.MaxVaRPct < 0 || r.MaxVaRPct > 1 {
		return invalid("risk.max_var_pct must be in [0, 1]")
	}
	if r.MaxDrawdown < 0 || r.MaxDrawdown > 1 {
		return invalid("risk.max_drawdown must be in [0, 1]")
	}
	return nil
}

// DefaultSimulation returns the engine defaults: 0.1% commission with a $1
// minimum, 5bps slippage, long-only target exposure at 95% of equity.
func DefaultSimulation() Simulation {
	return Simulation{
		CommissionRate: 0.001,
		MinCommission:  1.0,
		SlippageRate:   0.0005,
		LongOnly:       true,
		SignalMode:     SignalTarget,
		SizingMethod:   SizingFixedPercent,
		SizingTarget:   0.95,
		MinExposure:    0.001,
		SignalDeadband: 0.01,
		MinEquity:      0.001,
		RiskFreeRate:   0.02,
		PeriodsPerYear: 252,
	}
}

// DefaultSentiment returns a five-day half-life and a neutral sizer.
func DefaultSentiment() SentimentConfig {
	return SentimentConfig{
		HalfLife:   "120h",
		NoiseFloor: 0.01,
		MinScore:   -1,
		BaseWeight: 1,
		Scale:      1,
	}
}

func DefaultRisk() RiskConfig {
	return RiskConfig{
		Trials:        1000,
		VaRPercentile: 5,
		Seed:          1,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "USD",
			Balance:  10000,
		},
		Simulation: DefaultSimulation(),
		Sentiment:  DefaultSentiment(),
		Risk:       DefaultRisk(),
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// StartingCash is the cash a run begins with: Simulation.InitialCash when set,
// otherwise the account balance.
func (c *Config) StartingCash() float64 {
	if c.Simulation.InitialCash > 0 {
		return c.Simulation.InitialCash
	}
	return c.Account.Balance
}
