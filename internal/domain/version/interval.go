package version

// Interval is an inclusive range of versions as stored in the corpus.
// Bounds are kept as text so the corpus round-trips unchanged.
type Interval struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// All spans every version the corpus knows about.
func All() Interval {
	return Interval{From: Zero, To: LatestKnown}
}

// Bounds normalizes both ends of the interval.
func (iv Interval) Bounds() (Version, Version, error) {
	from, err := Normalize(iv.From)
	if err != nil {
		return Version{}, Version{}, err
	}
	to, err := Normalize(iv.To)
	if err != nil {
		return Version{}, Version{}, err
	}
	return from, to, nil
}

// Valid reports whether both bounds normalize and From <= To.
func (iv Interval) Valid() bool {
	from, to, err := iv.Bounds()
	return err == nil && Compare(from, to) <= 0
}

// Contains reports whether v lies within the interval, bounds included.
// An interval with malformed bounds contains nothing.
func (iv Interval) Contains(v Version) bool {
	from, to, err := iv.Bounds()
	if err != nil {
		return false
	}
	return Compare(from, v) <= 0 && Compare(v, to) <= 0
}

// InRange reports whether the raw version lies within iv. Malformed input never matches.
func InRange(raw string, iv Interval) bool {
	v, err := Normalize(raw)
	if err != nil {
		return false
	}
	return iv.Contains(v)
}
