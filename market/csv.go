package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102 150405",
}

// ParseTime accepts RFC3339, common date-time forms and unix seconds.
// Times without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// header maps lower-cased column names to their index.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := header{}
	for i, name := range rec {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return h, nil
}

func (h header) get(rec []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) float(rec []string, name string) (float64, error) {
	s := h.get(rec, name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	return cr
}

// ReadBars parses a bars CSV with a time,open,high,low,close[,volume] header.
// Unparseable prices are kept as NaN so the engine can report the period as a
// data gap instead of silently dropping it.
func ReadBars(r io.Reader, asset string) (BarSet, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "time", "open", "close")
	if err != nil {
		return BarSet{}, fmt.Errorf("bars: %w", err)
	}

	bs := BarSet{Asset: asset}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return BarSet{}, fmt.Errorf("bars line %d: %w", line, err)
		}
		t, err := ParseTime(h.get(rec, "time"))
		if err != nil {
			return BarSet{}, fmt.Errorf("bars line %d: %w", line, err)
		}
		b := Bar{Time: t}
		b.Open = priceOrNaN(h, rec, "open")
		b.High = priceOrNaN(h, rec, "high")
		b.Low = priceOrNaN(h, rec, "low")
		b.Close = priceOrNaN(h, rec, "close")
		b.Volume, _ = h.float(rec, "volume")
		bs.Bars = append(bs.Bars, b)
	}
	if err := bs.Validate(); err != nil {
		return BarSet{}, err
	}
	return bs, nil
}

func priceOrNaN(h header, rec []string, name string) float64 {
	v, err := strconv.ParseFloat(h.get(rec, name), 64)
	if err != nil {
		return nan
	}
	return v
}

// ReadBarsFile opens path and parses it with ReadBars.
func ReadBarsFile(path, asset string) (BarSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return BarSet{}, err
	}
	defer f.Close()
	return ReadBars(f, asset)
}

// ReadNews parses time,asset,relevance,sentiment[,headline,source] rows.
func ReadNews(r io.Reader) ([]NewsEvent, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "time", "asset", "relevance", "sentiment")
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	var out []NewsEvent
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("news line %d: %w", line, err)
		}
		t, err := ParseTime(h.get(rec, "time"))
		if err != nil {
			return nil, fmt.Errorf("news line %d: %w", line, err)
		}
		rel, err := h.float(rec, "relevance")
		if err != nil {
			return nil, fmt.Errorf("news line %d relevance: %w", line, err)
		}
		raw, err := h.float(rec, "sentiment")
		if err != nil {
			return nil, fmt.Errorf("news line %d sentiment: %w", line, err)
		}
		out = append(out, NewsEvent{
			Time:         t,
			Asset:        h.get(rec, "asset"),
			Relevance:    rel,
			RawSentiment: raw,
			Headline:     h.get(rec, "headline"),
			Source:       h.get(rec, "source"),
		})
	}
	SortNews(out)
	return out, nil
}

// ReadNewsFile opens path and parses it with ReadNews.
func ReadNewsFile(path string) ([]NewsEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadNews(f)
}

// Signal is one externally produced signal value attributed to a bar close.
type Signal struct {
	Time  time.Time
	Value float64
}

// ReadSignals parses time,signal rows.
func ReadSignals(r io.Reader) ([]Signal, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "time", "signal")
	if err != nil {
		return nil, fmt.Errorf("signals: %w", err)
	}

	var out []Signal
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("signals line %d: %w", line, err)
		}
		t, err := ParseTime(h.get(rec, "time"))
		if err != nil {
			return nil, fmt.Errorf("signals line %d: %w", line, err)
		}
		v, err := h.float(rec, "signal")
		if err != nil {
			return nil, fmt.Errorf("signals line %d: %w", line, err)
		}
		out = append(out, Signal{Time: t, Value: v})
	}
	return out, nil
}

// ReadSignalsFile opens path and parses it with ReadSignals.
func ReadSignalsFile(path string) ([]Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSignals(f)
}
