package vulnerability

import (
	"github.com/khanhnv2901/moodscan/internal/domain/version"
)

// Index answers which corpus records affect a given version.
// It wraps an immutable snapshot and is safe for concurrent reads.
type Index struct {
	records []Record
}

// NewIndex builds an index over a copy of records, keeping their order.
func NewIndex(records []Record) *Index {
	return &Index{records: append([]Record(nil), records...)}
}

// Len returns the number of records in the snapshot.
func (i *Index) Len() int {
	return len(i.records)
}

// Records returns a copy of the snapshot in corpus order.
func (i *Index) Records() []Record {
	return append([]Record(nil), i.records...)
}

// Query returns every record with at least one interval containing v, in corpus order.
func (i *Index) Query(v version.Version) []Record {
	var found []Record
	for _, r := range i.records {
		if r.Affects(v) {
			found = append(found, r)
		}
	}
	return found
}

// QueryRaw normalizes raw and queries the index. A malformed version matches nothing.
func (i *Index) QueryRaw(raw string) []Record {
	v, err := version.Normalize(raw)
	if err != nil {
		return nil
	}
	return i.Query(v)
}
