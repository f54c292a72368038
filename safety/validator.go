// Package safety rejects strategy source that reads data from periods later
// than the bar being decided.
//
// Two dialects are scanned. Go source (anything that parses as a file
// starting with a package clause) is matched against forbidden AST shapes.
// Everything else is treated as pandas-style script text and matched with
// narrow literal patterns after comments and string contents are blanked.
// Both scans are best-effort: equivalent lookahead written another way is
// not detected.
package safety

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Fixed policy limits. They are not configurable per call so the same bound
// applies at validation and at storage time.
const (
	MaxSourceLen = 1_000_000
	MaxNameLen   = 100
)

// Rule identifiers reported in Result.Rule.
const (
	RuleNegativeShift = "negative-shift"
	RuleForwardIndex  = "forward-index"
	RuleForwardSlice  = "forward-slice"
	RuleOpenSlice     = "open-slice"
	RuleSourceSize    = "source-size"
	RuleParse         = "parse"
)

type Dialect string

const (
	DialectText Dialect = "text"
	DialectGo   Dialect = "go"
)

// Result is the verdict for one source text.
type Result struct {
	OK      bool
	Dialect Dialect
	Rule    string
	Reason  string
	Line    int
}

// Validator is stateless and safe for concurrent use.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate scans source and returns the first violation found.
func (v *Validator) Validate(source string) Result {
	if n := utf8.RuneCountInString(source); n > MaxSourceLen {
		return Result{
			Dialect: detectDialect(source),
			Rule:    RuleSourceSize,
			Reason:  fmt.Sprintf("source is %d characters, limit is %d", n, MaxSourceLen),
		}
	}

	if detectDialect(source) == DialectGo {
		return scanGo(source)
	}
	return scanText(source)
}

// ValidateName checks a strategy identifier against the name limits.
func (v *Validator) ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return fmt.Errorf("strategy name is required: %w", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("strategy name is %d characters, limit is %d: %w",
			utf8.RuneCountInString(name), MaxNameLen, ErrInvalidName)
	}
	return nil
}

// detectDialect reports Go when the first non-comment token is "package".
func detectDialect(source string) Dialect {
	s := source
	for {
		s = strings.TrimLeft(s, " \t\r\n\ufeff")
		switch {
		case strings.HasPrefix(s, "//"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return DialectText
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return DialectText
			}
			s = s[i+2:]
		default:
			if strings.HasPrefix(s, "package ") || strings.HasPrefix(s, "package\t") {
				return DialectGo
			}
			return DialectText
		}
	}
}

func reject(d Dialect, rule string, line int, format string, args ...any) Result {
	return Result{
		Dialect: d,
		Rule:    rule,
		Line:    line,
		Reason:  fmt.Sprintf(format, args...),
	}
}
