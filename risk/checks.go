package risk

import (
	"fmt"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	VaRPct      float64
	MaxDrawdown float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks a simulated distribution against p.
func Evaluate(p Policy, dist *Distribution) Decision {
	d := Decision{Allowed: true}
	if dist == nil {
		d.add("NO_DISTRIBUTION", "no simulated distribution")
		return d
	}

	d.VaRPct = dist.VaRPct()
	d.MaxDrawdown = dist.MedianMaxDrawdown

	if p.MaxVaRPct > 0 && d.VaRPct > p.MaxVaRPct {
		d.add("VAR_TOO_HIGH",
			fmt.Sprintf("VaR at P%g is %.2f%% of equity, max %.2f%%",
				dist.VaRPercentile, 100*d.VaRPct, 100*p.MaxVaRPct))
	}
	if p.MaxDrawdown > 0 && d.MaxDrawdown > p.MaxDrawdown {
		d.add("DRAWDOWN_TOO_HIGH",
			fmt.Sprintf("median max drawdown %.2f%% exceeds max %.2f%%",
				100*d.MaxDrawdown, 100*p.MaxDrawdown))
	}
	if dist.TotalLosses > 0 {
		d.add("TOTAL_LOSS",
			fmt.Sprintf("%d of %d trials hit a total loss", dist.TotalLosses, dist.Trials))
	}
	return d
}
