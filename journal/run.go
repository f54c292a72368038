package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// RunRecord mirrors the runs table.
type RunRecord struct {
	RunID   string
	Created time.Time
	Dataset string

	Strategy string
	Asset    string
	Config   []byte // simulation config as YAML

	Start time.Time
	End   time.Time
	Bars  int

	InitialCash    float64
	TerminalEquity float64
	TotalReturn    float64
	CAGR           float64
	MaxDrawdown    float64
	Sharpe         float64

	Trades       int
	RoundTrips   int
	Wins         int
	Losses       int
	WinRate      float64
	ProfitFactor float64

	Halted     bool
	HaltReason string

	Risk *RiskSummary

	OrgPath     string
	Notes       []string
	NextActions []string
}

// RiskSummary holds the Monte Carlo percentiles stored with a run.
type RiskSummary struct {
	Trials            int
	VaRPercentile     float64
	VaR               float64
	P5                float64
	P50               float64
	P95               float64
	MedianMaxDrawdown float64
}

// NetPL is terminal equity less starting cash.
func (r RunRecord) NetPL() float64 { return r.TerminalEquity - r.InitialCash }

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// Org renders the run as an Org-mode block.
func (r RunRecord) Org() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, r); err != nil {
		return "", fmt.Errorf("journal: render run %s: %w", r.RunID, err)
	}
	return buf.String(), nil
}

// WriteOrg renders the run to OrgPath.
func (r RunRecord) WriteOrg() error {
	if r.OrgPath == "" {
		return fmt.Errorf("journal: run %s has no org path", r.RunID)
	}
	s, err := r.Org()
	if err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, []byte(s), 0o644)
}

const RunOrgTemplate = `
* BACKTEST: {{.Strategy}} {{.Asset}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:ASSET:       {{.Asset}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_EQ:    {{printf "%.2f" .InitialCash}}
:END_EQ:      {{printf "%.2f" .TerminalEquity}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .MaxDrawdown)}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
{{- if .Halted}}
:HALTED:      {{.HaltReason}}
{{- end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" (mul100 .TotalReturn)}}%*
- CAGR:             *{{printf "%.2f" (mul100 .CAGR)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .MaxDrawdown)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Round   | {{.RoundTrips}} |
| Fills   | {{.Trades}} |
{{- with .Risk}}

** Risk (Monte Carlo, {{.Trials}} trials)
| Percentile | Terminal Equity |
|------------+-----------------|
| P5         | {{printf "%.2f" .P5}} |
| P50        | {{printf "%.2f" .P50}} |
| P95        | {{printf "%.2f" .P95}} |

- VaR at P{{printf "%g" .VaRPercentile}}: *{{printf "%.2f" .VaR}}*
- Median Max Drawdown: *{{printf "%.2f" (mul100 .MedianMaxDrawdown)}}%*
{{- end}}
{{- if .Config}}

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}#+end_src
{{- end}}
{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
{{- if .NextActions}}

** Notes / Next Actions
{{- range .NextActions}}
- [ ] {{.}}
{{- end}}
{{- end}}
`
