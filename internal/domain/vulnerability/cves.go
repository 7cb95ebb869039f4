package vulnerability

import (
	"regexp"
	"strings"
)

var cvePattern = regexp.MustCompile(`^CVE-[0-9]{4}-[0-9]{0,8}`)

// ParseCVEs extracts CVE identifiers from the whitespace separated tokens of text.
// Trailing punctuation glued to a token is dropped. When nothing matches the
// result is the single NoIdentifier sentinel.
func ParseCVEs(text string) []string {
	var ids []string
	for _, token := range strings.Fields(text) {
		if id := cvePattern.FindString(token); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []string{NoIdentifier}
	}
	return ids
}
