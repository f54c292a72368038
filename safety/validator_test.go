package safety

import (
	"errors"
	"strings"
	"testing"

	"github.com/rustyeddy/quantlab/market"
	"github.com/rustyeddy/quantlab/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRulesReject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		rule string
	}{
		{"negative shift", "df['future'] = df['close'].shift(-1)", RuleNegativeShift},
		{"negative shift spaced", "x = s.shift( -3 )", RuleNegativeShift},
		{"negative shift keyword", "x = s.shift(periods=-2)", RuleNegativeShift},
		{"bare shift", "y = shift(-1)", RuleNegativeShift},
		{"forward index", "nxt = df['close'].iloc[i+1]", RuleForwardIndex},
		{"forward index spaced", "nxt = df.iloc[ i + 1 ]", RuleForwardIndex},
		{"forward index 2d", "nxt = df.iloc[i + 2, 0]", RuleForwardIndex},
		{"forward loc", "nxt = df.loc[idx + 1]", RuleForwardIndex},
		{"forward slice", "w = df.iloc[i+1:i+5]", RuleForwardSlice},
		{"tail trim", "hist = df.iloc[:-5]", RuleForwardSlice},
		{"open slice literal", "rest = df.iloc[10:]", RuleOpenSlice},
		{"open slice ident", "rest = df.iloc[i:]", RuleOpenSlice},
		{"open slice 2d", "rest = df.iloc[start:, 0]", RuleOpenSlice},
		{"bare iloc", "v = iloc[i+1]", RuleForwardIndex},
		{"chained column index", "nxt = df['close'][i+1]", RuleForwardIndex},
		{"values index", "nxt = close.values[i+1]", RuleForwardIndex},
		{"list slice", "w = prices[t + 2:t + 6]", RuleForwardSlice},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.src)
			assert.False(t, res.OK)
			assert.Equal(t, DialectText, res.Dialect)
			assert.Equal(t, tt.rule, res.Rule)
			assert.NotEmpty(t, res.Reason)
			assert.Equal(t, 1, res.Line)
		})
	}
}

func TestTextRulesAcceptLaggedAccess(t *testing.T) {
	t.Parallel()

	safe := `
import pandas as pd

class Trend(Strategy):
    def generate_signals(self, data):
        df = data.copy()
        df['ma'] = df['close'].rolling(window=20).mean().shift(1)
        df['prev'] = df['close'].shift(1)
        df['signal'] = 0
        df.loc[df['close'] > df['ma'], 'signal'] = 1
        last = df['close'].iloc[i]
        before = df['close'].iloc[i-1]
        hist = df.iloc[:i+1]
        win = df.iloc[i-5:i+1]
        prev = df['close'][i-1]
        span = closes[i-3:i+1]
        return df
`
	res := New().Validate(safe)
	assert.True(t, res.OK, "%s: %s", res.Rule, res.Reason)
	assert.Equal(t, DialectText, res.Dialect)
}

func TestTextIgnoresCommentsAndStrings(t *testing.T) {
	t.Parallel()

	src := `
# never call .shift(-1) or .iloc[i+1] here
note = "df.iloc[10:] would leak"
doc = """
df.shift(-1)
"""
x = df['close'].shift(1)
`
	res := New().Validate(src)
	assert.True(t, res.OK, "%s: %s", res.Rule, res.Reason)
}

func TestTextReportsEarliestLine(t *testing.T) {
	t.Parallel()

	src := "a = 1\nb = df.iloc[10:]\nc = df.shift(-1)\n"
	res := New().Validate(src)
	require.False(t, res.OK)
	assert.Equal(t, RuleOpenSlice, res.Rule)
	assert.Equal(t, 2, res.Line)
}

func TestGoRules(t *testing.T) {
	t.Parallel()

	wrap := func(body string) string {
		return "package user\n\nfunc signal(xs []float64, i int) float64 {\n" + body + "\n}\n"
	}

	tests := []struct {
		name string
		body string
		rule string
	}{
		{"forward index", "return xs[i+1]", RuleForwardIndex},
		{"forward index reversed", "return xs[2+i]", RuleForwardIndex},
		{"open slice", "return sum(xs[10:])", RuleOpenSlice},
		{"forward slice", "return sum(xs[i+1 : i+3])", RuleForwardSlice},
		{"negative shift", "return s.Shift(-1).Last()", RuleNegativeShift},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(wrap(tt.body))
			assert.False(t, res.OK)
			assert.Equal(t, DialectGo, res.Dialect)
			assert.Equal(t, tt.rule, res.Rule)
			assert.Equal(t, 4, res.Line)
		})
	}
}

func TestGoRulesAccept(t *testing.T) {
	t.Parallel()

	src := `package user

func signal(xs []float64, i, n int) float64 {
	prev := xs[i-1]
	cur := xs[i]
	win := xs[i-n+1 : i+1]
	head := xs[:i+1]
	_ = s.Shift(1)
	return prev + cur + float64(len(win)+len(head))
}
`
	res := New().Validate(src)
	assert.True(t, res.OK, "%s: %s", res.Rule, res.Reason)
	assert.Equal(t, DialectGo, res.Dialect)
}

func TestGoParseError(t *testing.T) {
	t.Parallel()

	res := New().Validate("package broken\nfunc (")
	assert.False(t, res.OK)
	assert.Equal(t, RuleParse, res.Rule)
}

func TestDetectDialectSkipsLeadingComments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DialectGo, detectDialect("// header\n/* block */\npackage x\n"))
	assert.Equal(t, DialectText, detectDialect("# python\nimport pandas\n"))
	assert.Equal(t, DialectText, detectDialect("packages = []"))
}

func TestLimits(t *testing.T) {
	t.Parallel()

	v := New()
	res := v.Validate(strings.Repeat("x", MaxSourceLen+1))
	assert.False(t, res.OK)
	assert.Equal(t, RuleSourceSize, res.Rule)

	assert.True(t, v.Validate(strings.Repeat("x", MaxSourceLen)).OK)

	assert.NoError(t, v.ValidateName("trend"))
	assert.NoError(t, v.ValidateName(strings.Repeat("n", MaxNameLen)))
	assert.ErrorIs(t, v.ValidateName(""), ErrInvalidName)
	assert.ErrorIs(t, v.ValidateName("   "), ErrInvalidName)
	assert.ErrorIs(t, v.ValidateName(strings.Repeat("n", MaxNameLen+1)), ErrInvalidName)
}

type countingStrategy struct{ calls int }

func (c *countingStrategy) Name() string { return "counting" }
func (c *countingStrategy) Warmup() int  { return 0 }
func (c *countingStrategy) Signal([]market.Bar) float64 {
	c.calls++
	return 1
}

func TestGateRejectsVerbatim(t *testing.T) {
	t.Parallel()

	strat := &countingStrategy{}
	src := "x = df.shift(-1)"
	want := New().Validate(src)

	ap, err := Gate(New(), "cheat", src, strat)
	require.Error(t, err)
	assert.Nil(t, ap)
	assert.ErrorIs(t, err, ErrRejected)

	var rej *RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RuleNegativeShift, rej.Rule)
	assert.Equal(t, want.Reason, rej.Reason)
	assert.Contains(t, err.Error(), want.Reason)
	assert.Equal(t, 0, strat.calls)
}

func TestGateApproves(t *testing.T) {
	t.Parallel()

	strat := &countingStrategy{}
	ap, err := Gate(New(), "lagged", "x = df.shift(1)", strat)
	require.NoError(t, err)
	assert.Equal(t, "lagged", ap.Name())
	assert.Equal(t, DialectText, ap.Dialect())
	assert.Equal(t, 1.0, ap.Signal([]market.Bar{{}}))
	assert.Equal(t, 1, strat.calls)

	_, err = Gate(New(), "", "x = 1", strat)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = Gate(nil, "x", "x = 1", strat)
	assert.Error(t, err)
	_, err = Gate(New(), "x", "x = 1", nil)
	assert.Error(t, err)
}

func TestPresetsPassTheirOwnGate(t *testing.T) {
	t.Parallel()

	v := New()
	for _, name := range strategies.Names() {
		ap, err := GatePreset(v, name, strategies.Params{})
		require.NoError(t, err, name)
		assert.Equal(t, DialectGo, ap.Dialect(), name)
	}

	res := v.Validate(strategies.SeriesSource())
	assert.True(t, res.OK, "%s: %s", res.Rule, res.Reason)
}
