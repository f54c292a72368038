package sentiment

import "github.com/rustyeddy/quantlab/config"

// Sizer maps a sentiment score to a position weight. Scores below MinScore
// mean risk off. Otherwise -1 maps to 0, 0 to half and +1 to the full
// BaseWeight*Scale, clipped to [0, 1] unless AllowLeverage is set.
type Sizer struct {
	MinScore      float64
	BaseWeight    float64
	Scale         float64
	AllowLeverage bool
}

// DefaultSizer never goes risk off and maps neutral sentiment to 0.5.
func DefaultSizer() Sizer {
	return Sizer{MinScore: -1, BaseWeight: 1, Scale: 1}
}

func SizerFromConfig(c config.SentimentConfig) Sizer {
	return Sizer{
		MinScore:      c.MinScore,
		BaseWeight:    c.BaseWeight,
		Scale:         c.Scale,
		AllowLeverage: c.AllowLeverage,
	}
}

func (z Sizer) Weight(score float64) float64 {
	if score < z.MinScore {
		return 0
	}
	w := z.BaseWeight * (0.5 + 0.5*score) * z.Scale
	if z.AllowLeverage {
		if w < 0 {
			return 0
		}
		return w
	}
	return clamp(w, 0, 1)
}
