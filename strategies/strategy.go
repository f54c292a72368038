package strategies

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rustyeddy/quantlab/market"
)

// Strategy maps the bars observed so far to a signal for the last of them.
// Implementations must only read the slice they are given; the engine never
// passes bars beyond the one being decided.
type Strategy interface {
	Name() string
	// Warmup is the number of bars needed before the signal is meaningful.
	Warmup() int
	Signal(bars []market.Bar) float64
}

// Resetter is implemented by strategies that keep incremental state.
type Resetter interface {
	Reset()
}

// Params configures the built-in strategies. Zero fields take defaults.
type Params struct {
	Window    int     `json:"window" yaml:"window"`
	Fast      int     `json:"fast" yaml:"fast"`
	Slow      int     `json:"slow" yaml:"slow"`
	Period    int     `json:"period" yaml:"period"`
	Lower     float64 `json:"lower" yaml:"lower"`
	Upper     float64 `json:"upper" yaml:"upper"`
	K         float64 `json:"k" yaml:"k"`
	ADXPeriod int     `json:"adx_period" yaml:"adx_period"`
	ADXMin    float64 `json:"adx_min" yaml:"adx_min"`
}

func DefaultParams() Params {
	return Params{
		Window:    20,
		Fast:      10,
		Slow:      30,
		Period:    14,
		Lower:     30,
		Upper:     70,
		K:         2,
		ADXPeriod: 14,
		ADXMin:    20,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.Fast <= 0 {
		p.Fast = d.Fast
	}
	if p.Slow <= 0 {
		p.Slow = d.Slow
	}
	if p.Period <= 0 {
		p.Period = d.Period
	}
	if p.Lower <= 0 {
		p.Lower = d.Lower
	}
	if p.Upper <= 0 {
		p.Upper = d.Upper
	}
	if p.K <= 0 {
		p.K = d.K
	}
	if p.ADXPeriod <= 0 {
		p.ADXPeriod = d.ADXPeriod
	}
	if p.ADXMin <= 0 {
		p.ADXMin = d.ADXMin
	}
	return p
}

// Factory builds a preset from params.
type Factory func(p Params) (Strategy, error)

type preset struct {
	factory Factory
	file    string
}

//go:embed noop.go ma_trend.go ema_cross.go ema_adx.go rsi.go bollinger.go series.go
var sources embed.FS

var (
	mu       sync.RWMutex
	registry = make(map[string]preset)
)

// Register adds a preset whose Go source lives in file within this package.
func Register(name string, file string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = preset{factory: f, file: file}
}

// Names lists the registered presets in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Preset builds the named strategy and returns it with its own source text,
// so callers can pass both through validation.
func Preset(name string, p Params) (Strategy, string, error) {
	mu.RLock()
	pr, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}

	strat, err := pr.factory(p.withDefaults())
	if err != nil {
		return nil, "", err
	}
	src, err := sources.ReadFile(pr.file)
	if err != nil {
		return nil, "", fmt.Errorf("read source for %q: %w", name, err)
	}
	return strat, string(src), nil
}
