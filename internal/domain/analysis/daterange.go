package analysis

import "time"

// dayKeyLayout is the calendar-day bucket key format. Lexicographic order of
// keys in this layout matches chronological order.
const dayKeyLayout = "2006-01-02"

// DateRange is an inclusive calendar-day window. Either bound may be absent,
// leaving that side unbounded. Bounds are normalized to full-day edges:
// the lower bound to 00:00:00.000 and the upper bound to 23:59:59.999 of
// their calendar day, in the range's location.
type DateRange struct {
	from *time.Time
	to   *time.Time
	loc  *time.Location
}

// NewDateRange builds a range from optional day bounds. The same location is
// used for bound normalization and for day-key derivation so an order never
// lands in a bucket outside the window that admitted it.
func NewDateRange(from, to *time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.Local
	}
	r := DateRange{loc: loc}
	if from != nil {
		t := from.In(loc)
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		r.from = &start
	}
	if to != nil {
		t := to.In(loc)
		end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
		r.to = &end
	}
	return r
}

// Contains reports whether t falls inside the window, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	if r.from != nil && t.Before(*r.from) {
		return false
	}
	if r.to != nil && t.After(*r.to) {
		return false
	}
	return true
}

// DayKey buckets a timestamp into its calendar day in the range's location.
func (r DateRange) DayKey(t time.Time) string {
	return t.In(r.loc).Format(dayKeyLayout)
}

// FromKey returns the lower bound's day key, or "" when unbounded.
func (r DateRange) FromKey() string {
	if r.from == nil {
		return ""
	}
	return r.from.Format(dayKeyLayout)
}

// ToKey returns the upper bound's day key, or "" when unbounded.
func (r DateRange) ToKey() string {
	if r.to == nil {
		return ""
	}
	return r.to.Format(dayKeyLayout)
}

// Label renders the range for filenames and report headings,
// e.g. "2024-01-01_to_2024-01-31".
func (r DateRange) Label() string {
	return r.FromKey() + "_to_" + r.ToKey()
}
