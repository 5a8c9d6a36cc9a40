package booking

// Interval is the half-open time range [Start, End) within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval returns the interval starting at start and lasting d minutes.
func NewInterval(start TimeOfDay, d Minutes) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether i and o share at least one minute. Intervals that
// only touch (one ends where the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Duration returns the length of i.
func (i Interval) Duration() Minutes {
	return i.End.Sub(i.Start)
}

func (i Interval) Valid() bool {
	return i.Start < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
