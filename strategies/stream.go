package strategies

import (
	"time"

	"github.com/rustyeddy/quantlab/market"
)

// tracker feeds only unseen bars to incremental indicators. When the prefix
// is not a one-step extension of the last call it replays from the start,
// so the signal stays a function of the prefix alone.
type tracker struct {
	seen int
	last time.Time
}

func (t *tracker) advance(bars []market.Bar, reset func(), update func(market.Bar)) {
	n := len(bars)
	if n < t.seen || (t.seen > 0 && !bars[t.seen-1].Time.Equal(t.last)) {
		reset()
		t.seen = 0
	}
	for i := t.seen; i < n; i++ {
		update(bars[i])
	}
	t.seen = n
	if n > 0 {
		t.last = bars[n-1].Time
	}
}

func (t *tracker) reset() {
	t.seen = 0
	t.last = time.Time{}
}
