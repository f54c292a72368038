package risk

import "github.com/rustyeddy/quantlab/config"

// Policy bounds an acceptable distribution. Zero fields are not checked.
type Policy struct {
	MaxVaRPct   float64 // VaR as a fraction of starting equity, e.g. 0.1
	MaxDrawdown float64 // median per-trial max drawdown, e.g. 0.25
}

func PolicyFromConfig(c config.RiskConfig) Policy {
	return Policy{MaxVaRPct: c.MaxVaRPct, MaxDrawdown: c.MaxDrawdown}
}
