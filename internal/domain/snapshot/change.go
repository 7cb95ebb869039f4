// Package snapshot describes the outcome of replacing a persisted data set.
package snapshot

// Change summarizes how a data set replacement went.
type Change struct {
	Name      string
	Before    int
	After     int
	Unchanged bool
	Backup    string
}

// Added returns the number of entries gained; negative when entries vanished.
func (c Change) Added() int {
	return c.After - c.Before
}

// Shrunk reports whether the new snapshot has fewer entries than the previous one.
func (c Change) Shrunk() bool {
	return c.Added() < 0
}

// ProgressFunc reports that step of total units of a download finished. total is
// zero when the amount of work is not known upfront.
type ProgressFunc func(step, total int)
