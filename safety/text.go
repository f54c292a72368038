package safety

import (
	"regexp"
	"strings"
)

type textRule struct {
	rule   string
	re     *regexp.Regexp
	reason string
}

// Patterns run over blanked source, so quotes survive but their contents and
// comments do not. Each pattern needs an explicit positive offset or a
// missing upper bound; lagged access such as shift(1) or iloc[i-1] passes.
// Forward offsets are caught on any subscript, not only iloc and loc.
var textRules = []textRule{
	{
		rule:   RuleNegativeShift,
		re:     regexp.MustCompile(`\bshift\s*\(\s*(?:periods\s*=\s*)?-`),
		reason: "negative shift reads a later row into the current row",
	},
	{
		rule:   RuleForwardSlice,
		re:     regexp.MustCompile(`\[\s*[A-Za-z_]\w*\s*\+\s*0*[1-9]\d*\s*:`),
		reason: "slice starts ahead of the current row",
	},
	{
		rule:   RuleForwardIndex,
		re:     regexp.MustCompile(`\[\s*[A-Za-z_]\w*\s*\+\s*0*[1-9]\d*\s*[\],]`),
		reason: "index arithmetic reads a row ahead of the current row",
	},
	{
		rule:   RuleForwardSlice,
		re:     regexp.MustCompile(`\biloc\s*\[\s*:\s*-\s*\d+`),
		reason: "slice trims trailing rows, aligning the result with later rows",
	},
	{
		rule:   RuleOpenSlice,
		re:     regexp.MustCompile(`(?:\biloc|\.loc)\s*\[\s*[^\[\]:,\s][^\[\]:,]*:\s*[\],]`),
		reason: "slice has only a lower bound and runs to the end of the series",
	},
}

func scanText(source string) Result {
	clean := blankText(source)

	best := -1
	var hit textRule
	var match string
	for _, r := range textRules {
		loc := r.re.FindStringIndex(clean)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			hit = r
			match = clean[loc[0]:loc[1]]
		}
	}
	if best < 0 {
		return Result{OK: true, Dialect: DialectText}
	}
	line := strings.Count(clean[:best], "\n") + 1
	return reject(DialectText, hit.rule, line, "%s: %q", hit.reason, strings.TrimSpace(match))
}

// blankText replaces comment text and string literal contents with spaces,
// keeping quotes and newlines so offsets and line numbers still line up.
func blankText(src string) string {
	b := []byte(src)
	n := len(b)
	for i := 0; i < n; {
		c := b[i]
		switch {
		case c == '#':
			for i < n && b[i] != '\n' {
				b[i] = ' '
				i++
			}
		case c == '"' || c == '\'':
			if i+2 < n && b[i+1] == c && b[i+2] == c {
				i = blankTriple(b, i+3, c)
			} else {
				i = blankSingle(b, i+1, c)
			}
		default:
			i++
		}
	}
	return string(b)
}

func blankSingle(b []byte, i int, q byte) int {
	for i < len(b) {
		switch b[i] {
		case '\\':
			b[i] = ' '
			if i+1 < len(b) && b[i+1] != '\n' {
				b[i+1] = ' '
			}
			i += 2
		case q:
			return i + 1
		case '\n':
			// Unterminated literal ends at the line break.
			return i + 1
		default:
			b[i] = ' '
			i++
		}
	}
	return i
}

func blankTriple(b []byte, i int, q byte) int {
	for i < len(b) {
		if b[i] == q && i+2 < len(b) && b[i+1] == q && b[i+2] == q {
			return i + 3
		}
		if b[i] == '\\' && i+1 < len(b) && b[i+1] != '\n' {
			b[i] = ' '
			b[i+1] = ' '
			i += 2
			continue
		}
		if b[i] != '\n' {
			b[i] = ' '
		}
		i++
	}
	return i
}
