package vulnerability

import (
	"github.com/khanhnv2901/moodscan/internal/domain/version"
)

// NoIdentifier is stored in place of CVE ids when an advisory lists none.
const NoIdentifier = "N/A"

// Record is one official advisory with its affected version intervals.
// Records are built once during a corpus refresh and never modified afterwards.
type Record struct {
	Title            string             `json:"title"`
	CVEs             []string           `json:"cves"`
	Versions         []version.Interval `json:"versions"`
	VersionsAffected string             `json:"versions_affected"`
	Link             string             `json:"link"`
}

// NewRecord builds a record from the raw advisory fields, parsing the affected text.
func NewRecord(title string, cves []string, affected, link string) Record {
	if len(cves) == 0 {
		cves = []string{NoIdentifier}
	}
	return Record{
		Title:            title,
		CVEs:             append([]string(nil), cves...),
		Versions:         ParseAffected(affected),
		VersionsAffected: affected,
		Link:             link,
	}
}

// Affects reports whether any interval of the record contains v.
func (r Record) Affects(v version.Version) bool {
	for _, iv := range r.Versions {
		if iv.Contains(v) {
			return true
		}
	}
	return false
}
