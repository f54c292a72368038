package sentiment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/quantlab/config"
	"github.com/rustyeddy/quantlab/market"
)

// ErrOutOfOrder is returned when an event is older than the asset's state.
var ErrOutOfOrder = errors.New("news event older than current state")

type assetState struct {
	mu    sync.Mutex
	state State
	log   []market.NewsEvent
}

// Aggregator keeps one decaying score per asset. Updates to the same asset
// are serialised; different assets proceed independently.
type Aggregator struct {
	halfLife   time.Duration
	noiseFloor float64
	log        zerolog.Logger

	mu     sync.Mutex
	assets map[string]*assetState
}

type Option func(*Aggregator)

// WithNoiseFloor zeroes reads whose magnitude is below floor.
func WithNoiseFloor(floor float64) Option {
	return func(a *Aggregator) { a.noiseFloor = floor }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

func NewAggregator(halfLife time.Duration, opts ...Option) (*Aggregator, error) {
	if halfLife <= 0 {
		return nil, fmt.Errorf("sentiment: half life must be positive, got %s: %w", halfLife, config.ErrInvalid)
	}
	a := &Aggregator{
		halfLife: halfLife,
		log:      zerolog.Nop(),
		assets:   make(map[string]*assetState),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.noiseFloor < 0 {
		return nil, fmt.Errorf("sentiment: noise floor must not be negative: %w", config.ErrInvalid)
	}
	return a, nil
}

// FromConfig builds an Aggregator from the sentiment section.
func FromConfig(c config.SentimentConfig, opts ...Option) (*Aggregator, error) {
	hl, err := c.HalfLifeDuration()
	if err != nil {
		return nil, err
	}
	return NewAggregator(hl, append([]Option{WithNoiseFloor(c.NoiseFloor)}, opts...)...)
}

func (a *Aggregator) HalfLife() time.Duration { return a.halfLife }

func (a *Aggregator) asset(name string) *assetState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.assets[name]
	if !ok {
		st = &assetState{}
		a.assets[name] = st
	}
	return st
}

// Update folds e into its asset's state.
func (a *Aggregator) Update(e market.NewsEvent) error {
	st := a.asset(e.Asset)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.state.Seen && e.Time.Before(st.state.At) {
		return fmt.Errorf("%s at %s before %s: %w", e.Asset,
			e.Time.Format(time.RFC3339), st.state.At.Format(time.RFC3339), ErrOutOfOrder)
	}
	st.state = Apply(st.state, e, a.halfLife)
	st.log = append(st.log, e)

	a.log.Debug().
		Str("asset", e.Asset).
		Time("at", e.Time).
		Float64("impact", Impact(e)).
		Float64("score", st.state.Score).
		Msg("sentiment update")
	return nil
}

// Score reads the asset's score at asOf. Reading before the latest event
// replays the history up to asOf, so the result never depends on when the
// events arrived. Unknown assets read as 0.
func (a *Aggregator) Score(asset string, asOf time.Time) float64 {
	a.mu.Lock()
	st, ok := a.assets[asset]
	a.mu.Unlock()
	if !ok {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var v float64
	if asOf.Before(st.state.At) {
		v = Replay(st.log, asOf, a.halfLife)
	} else {
		v = Decay(st.state, asOf, a.halfLife)
	}
	return filter(v, a.noiseFloor)
}

// State returns a copy of the asset's latest state.
func (a *Aggregator) State(asset string) State {
	a.mu.Lock()
	st, ok := a.assets[asset]
	a.mu.Unlock()
	if !ok {
		return State{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Assets lists the assets that have received events.
func (a *Aggregator) Assets() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.assets))
	for name := range a.assets {
		out = append(out, name)
	}
	return out
}
