package market

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

var (
	// ErrUnordered is returned when bar timestamps are not strictly increasing.
	ErrUnordered = errors.New("bars must be strictly increasing in time")
	// ErrEmpty is returned for a bar set with no bars.
	ErrEmpty = errors.New("bar set is empty")
)

// BarSet is the ordered bar series for one asset.
type BarSet struct {
	Asset string
	Bars  []Bar
}

// Gap describes missing periods between two consecutive bars.
type Gap struct {
	After   time.Time // time of the last bar before the gap
	Missing int       // number of expected periods absent
	Kind    string    // weekend, suspicious or minor
}

// GapStats summarises a gap report.
type GapStats struct {
	Bars           int
	Step           time.Duration
	GapCount       int
	MissingPeriods int
	WeekendGaps    int
	SuspiciousGaps int
	LongestGap     int
	LongestGapKind string
}

func (bs BarSet) Len() int { return len(bs.Bars) }

// Validate checks the ordering invariant.
func (bs BarSet) Validate() error {
	if len(bs.Bars) == 0 {
		return fmt.Errorf("%s: %w", bs.Asset, ErrEmpty)
	}
	for i := 1; i < len(bs.Bars); i++ {
		if !bs.Bars[i].Time.After(bs.Bars[i-1].Time) {
			return fmt.Errorf("%s: bar %d at %s does not follow %s: %w",
				bs.Asset, i, bs.Bars[i].Time.Format(time.RFC3339),
				bs.Bars[i-1].Time.Format(time.RFC3339), ErrUnordered)
		}
	}
	return nil
}

// Times returns the bar timestamps in order.
func (bs BarSet) Times() []time.Time {
	out := make([]time.Time, len(bs.Bars))
	for i, b := range bs.Bars {
		out[i] = b.Time
	}
	return out
}

// Between returns the sub-series with start <= Time <= end. Zero bounds are open.
func (bs BarSet) Between(start, end time.Time) BarSet {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(bs.Bars), func(i int) bool { return !bs.Bars[i].Time.Before(start) })
	}
	hi := len(bs.Bars)
	if !end.IsZero() {
		hi = sort.Search(len(bs.Bars), func(i int) bool { return bs.Bars[i].Time.After(end) })
	}
	if hi < lo {
		hi = lo
	}
	return BarSet{Asset: bs.Asset, Bars: bs.Bars[lo:hi]}
}

// Step infers the nominal bar interval as the smallest positive spacing.
func (bs BarSet) Step() time.Duration {
	var step time.Duration
	for i := 1; i < len(bs.Bars); i++ {
		d := bs.Bars[i].Time.Sub(bs.Bars[i-1].Time)
		if d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	return step
}

// Gaps reports spacing larger than the inferred step. Daily series skip
// weekends routinely, so those gaps are classified rather than rejected.
func (bs BarSet) Gaps() []Gap {
	step := bs.Step()
	if step == 0 {
		return nil
	}

	var gaps []Gap
	for i := 1; i < len(bs.Bars); i++ {
		d := bs.Bars[i].Time.Sub(bs.Bars[i-1].Time)
		missing := int(d/step) - 1
		if missing <= 0 {
			continue
		}
		gaps = append(gaps, Gap{
			After:   bs.Bars[i-1].Time,
			Missing: missing,
			Kind:    classifyGap(bs.Bars[i-1].Time, step, missing),
		})
	}
	return gaps
}

func classifyGap(after time.Time, step time.Duration, missing int) string {
	gap := step * time.Duration(missing)
	wd := after.UTC().Weekday()

	// A gap of up to three days starting Fri/Sat is a market weekend.
	if gap >= 24*time.Hour {
		if gap <= 72*time.Hour && (wd == time.Friday || wd == time.Saturday) {
			return "weekend"
		}
		return "suspicious"
	}
	if missing >= 10 {
		return "suspicious"
	}
	return "minor"
}

// Stats summarises the gap report.
func (bs BarSet) Stats() GapStats {
	s := GapStats{Bars: len(bs.Bars), Step: bs.Step()}
	for _, g := range bs.Gaps() {
		s.GapCount++
		s.MissingPeriods += g.Missing
		if g.Missing > s.LongestGap {
			s.LongestGap = g.Missing
			s.LongestGapKind = g.Kind
		}
		switch g.Kind {
		case "weekend":
			s.WeekendGaps++
		case "suspicious":
			s.SuspiciousGaps++
		}
	}
	return s
}

func (bs BarSet) PrintStats(w io.Writer) {
	s := bs.Stats()

	fmt.Fprintf(w, "---- %s bars ----\n", bs.Asset)
	if len(bs.Bars) > 0 {
		fmt.Fprintf(w, "Range: %s → %s\n",
			bs.Bars[0].Time.Format(time.RFC3339),
			bs.Bars[len(bs.Bars)-1].Time.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "            Bars: %d\n", s.Bars)
	fmt.Fprintf(w, "            Step: %s\n", s.Step)
	fmt.Fprintf(w, "      Total Gaps: %d\n", s.GapCount)
	fmt.Fprintf(w, " Missing Periods: %d\n", s.MissingPeriods)
	fmt.Fprintf(w, "    Weekend Gaps: %d\n", s.WeekendGaps)
	fmt.Fprintf(w, " Suspicious Gaps: %d\n", s.SuspiciousGaps)
	fmt.Fprintf(w, "Longest Gap: %d periods (%s)\n", s.LongestGap, s.LongestGapKind)
	fmt.Fprintln(w, "------------------")
}
