package vulnerability

import (
	"regexp"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/version"
)

var conjunction = regexp.MustCompile(`\band\b`)

// ParseAffected converts the "versions affected" prose of an advisory into intervals,
// in clause order. Clauses that cannot be read with confidence are left out.
func ParseAffected(text string) []version.Interval {
	clauses := splitClauses(text)

	if isWholeCorpus(clauses) {
		return []version.Interval{version.All()}
	}

	res := make([]version.Interval, 0, len(clauses))
	for _, clause := range clauses {
		var prev *version.Interval
		if len(res) > 0 {
			prev = &res[len(res)-1]
		}
		if iv, ok := parseClause(clause, prev); ok {
			res = append(res, iv)
		}
	}
	return res
}

func splitClauses(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var clauses []string
	for _, part := range conjunction.Split(text, -1) {
		for _, c := range strings.Split(part, ", ") {
			c = strings.ReplaceAll(c, "+", "")
			c = strings.ReplaceAll(c, " only", "")
			if i := strings.Index(c, "("); i >= 0 {
				c = c[:i]
			}
			c = strings.Trim(strings.TrimSpace(c), ",")
			if c = strings.TrimSpace(c); c != "" {
				clauses = append(clauses, c)
			}
		}
	}
	return clauses
}

func isWholeCorpus(clauses []string) bool {
	if len(clauses) == 1 && strings.HasPrefix(strings.ToLower(clauses[0]), "all") {
		return true
	}
	return len(clauses) == 2 &&
		strings.EqualFold(clauses[0], "all past") &&
		strings.EqualFold(clauses[1], "future versions")
}

// parseClause classifies a single clause. prev is the last interval produced so far.
func parseClause(clause string, prev *version.Interval) (version.Interval, bool) {
	lower := strings.ToLower(clause)

	var iv version.Interval
	switch {
	case strings.Contains(clause, ")"):
		return iv, false

	case strings.Contains(lower, "unsupported versions"):
		if prev == nil {
			return iv, false
		}
		iv = version.Interval{From: version.Zero, To: prev.From}

	case strings.Contains(clause, " to "):
		if strings.Count(clause, " to ") > 1 {
			return iv, false
		}
		from, to, _ := strings.Cut(clause, " to ")
		iv = bounded(from, to)

	case strings.Contains(clause, "-"):
		if strings.Count(clause, "-") > 1 {
			return iv, false
		}
		from, to, _ := strings.Cut(clause, "-")
		iv = bounded(from, to)

	case strings.HasPrefix(clause, "<"):
		upper := strings.TrimPrefix(strings.TrimPrefix(clause, "<"), "=")
		iv = version.Interval{
			From: version.Zero,
			To:   version.SubstituteWildcard(strings.TrimSpace(upper), version.WildcardHigh),
		}

	default:
		iv = bounded(clause, clause)
	}

	if !iv.Valid() {
		return version.Interval{}, false
	}
	return iv, true
}

func bounded(from, to string) version.Interval {
	return version.Interval{
		From: version.SubstituteWildcard(strings.TrimSpace(from), version.WildcardLow),
		To:   version.SubstituteWildcard(strings.TrimSpace(to), version.WildcardHigh),
	}
}
