/*
calendar.go - Dates, date ranges, and working-day arithmetic

PURPOSE:
  The work calendar is the foundation every other computation builds on.
  It answers three questions:
  - How many working days fall in a closed date range?
  - What are the first and last days of a calendar month?
  - Where do two date ranges intersect?

KEY CONCEPTS IN THIS FILE:
  - Date: A calendar date with no time-of-day component
  - DateRange: A closed interval [Start, End] of dates
  - Weekend: The set of weekdays excluded from work

WEEKEND IS CONFIGURATION:
  The weekend is NOT hardcoded. Different deployments use Fri/Sat or
  Sat/Sun; the effective weekend comes from the rule set (see rules.go).

PURITY:
  Everything here is a pure, total function. No clocks are read except
  in Today(), which callers inject at the edges.

SEE ALSO:
  - rules.go: Where the weekend definition lives
  - availability.go: The main consumer of working-day counts
*/
package engine

import (
	"time"
)

// =============================================================================
// DATE - Calendar date, no time-of-day
// =============================================================================

// Date is a calendar date. The zero value is the zero date.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// Earlier returns the earlier of two dates.
func Earlier(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Later returns the later of two dates.
func Later(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// WEEKEND - Set of non-working weekdays
// =============================================================================

// Weekend is the set of weekdays that do not count as working days.
type Weekend []time.Weekday

var (
	WeekendSatSun = Weekend{time.Saturday, time.Sunday}
	WeekendFriSat = Weekend{time.Friday, time.Saturday}
)

func (w Weekend) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Equal reports whether two weekends contain the same weekdays.
func (w Weekend) Equal(other Weekend) bool {
	if len(w) != len(other) {
		return false
	}
	for _, d := range w {
		if !other.Contains(d) {
			return false
		}
	}
	return true
}

// =============================================================================
// DATE RANGE - Closed interval [Start, End]
// =============================================================================

// DateRange is a closed interval of calendar dates. A valid range has
// Start <= End; validation is the caller's job via Validate.
type DateRange struct {
	Start Date
	End   Date
}

func NewDateRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

// Validate returns ErrInvalidRange when End is before Start.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Contains returns true if the date is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns the inclusive number of calendar days in the range.
func (r DateRange) Days() int {
	return int(r.End.normalize().Sub(r.Start.normalize()).Hours()/24) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// Overlap returns the intersection of two ranges, or false when disjoint.
// Pure and total: invalid inputs simply yield no overlap.
func Overlap(a, b DateRange) (DateRange, bool) {
	start := Later(a.Start, b.Start)
	end := Earlier(a.End, b.End)
	if end.Before(start) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

// =============================================================================
// WORKING DAYS
// =============================================================================

// CountWorkingDays returns the number of days in [r.Start, r.End] whose
// weekday is not in the weekend set. Fails with InvalidRangeError when the
// range is inverted. A single-day range returns 0 or 1.
func CountWorkingDays(r DateRange, weekend Weekend) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	count := 0
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		if !weekend.Contains(current.Weekday()) {
			count++
		}
	}
	return count, nil
}

// MonthBounds returns the first and last calendar day of a month.
// Handles variable month lengths and leap years.
func MonthBounds(year int, month time.Month) DateRange {
	first := NewDate(year, month, 1)
	last := Date{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
	return DateRange{Start: first, End: last}
}
