package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(year int, month time.Month, day int) engine.Date {
	return engine.NewDate(year, month, day)
}

func span(start, end engine.Date) engine.DateRange {
	return engine.NewDateRange(start, end)
}

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_RoundTrip(t *testing.T) {
	date, err := engine.ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date.String() != "2024-03-15" {
		t.Errorf("expected 2024-03-15, got %s", date)
	}
	if date.Weekday() != time.Friday {
		t.Errorf("2024-03-15 is a Friday, got %v", date.Weekday())
	}
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "15/03/2024", "2024-13-01", "not a date"} {
		if _, err := engine.ParseDate(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestDate_Comparisons(t *testing.T) {
	a := d(2024, time.January, 1)
	b := d(2024, time.January, 2)

	if !a.Before(b) || b.Before(a) {
		t.Error("ordering is wrong")
	}
	if !a.BeforeOrEqual(a) || !a.AfterOrEqual(a) {
		t.Error("a date should compare equal to itself")
	}
	if !engine.Earlier(b, a).Equal(a) || !engine.Later(a, b).Equal(b) {
		t.Error("Earlier/Later picked the wrong date")
	}
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestDateRange_Validate(t *testing.T) {
	// GIVEN: An inverted range
	// WHEN: Validating
	// THEN: InvalidRangeError wrapping ErrInvalidRange

	r := span(d(2024, time.May, 10), d(2024, time.May, 1))
	err := r.Validate()
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}

	// Single day is a valid range.
	if err := span(d(2024, time.May, 1), d(2024, time.May, 1)).Validate(); err != nil {
		t.Errorf("single-day range should be valid: %v", err)
	}
}

func TestOverlap(t *testing.T) {
	a := span(d(2024, time.January, 1), d(2024, time.January, 10))
	b := span(d(2024, time.January, 8), d(2024, time.January, 20))

	got, ok := engine.Overlap(a, b)
	if !ok {
		t.Fatal("ranges should overlap")
	}
	want := span(d(2024, time.January, 8), d(2024, time.January, 10))
	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Errorf("expected %s, got %s", want, got)
	}

	// Touching at a single day still overlaps; [1,5] and [5,9] share day 5.
	touching := span(d(2024, time.January, 5), d(2024, time.January, 9))
	if _, ok := engine.Overlap(span(d(2024, time.January, 1), d(2024, time.January, 5)), touching); !ok {
		t.Error("ranges sharing an endpoint should overlap")
	}

	// Disjoint.
	if _, ok := engine.Overlap(a, span(d(2024, time.February, 1), d(2024, time.February, 5))); ok {
		t.Error("disjoint ranges should not overlap")
	}
}

// =============================================================================
// WORKING DAY TESTS
// =============================================================================

func TestCountWorkingDays_SingleDay(t *testing.T) {
	// GIVEN: A one-day range
	// THEN: 1 when the day is a working day, 0 when it falls on the weekend

	monday := d(2024, time.January, 1) // Monday
	saturday := d(2024, time.January, 6)

	got, err := engine.CountWorkingDays(span(monday, monday), engine.WeekendSatSun)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1 working day, got %d", got)
	}

	got, err = engine.CountWorkingDays(span(saturday, saturday), engine.WeekendSatSun)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 working days, got %d", got)
	}
}

func TestCountWorkingDays_AdditiveUnderPartition(t *testing.T) {
	// GIVEN: A range split at an arbitrary interior point
	// THEN: The two halves sum to the whole

	whole := span(d(2024, time.March, 1), d(2024, time.March, 31))
	for day := 1; day < 31; day++ {
		cut := d(2024, time.March, day)
		left := span(whole.Start, cut)
		right := span(cut.AddDays(1), whole.End)

		total, err := engine.CountWorkingDays(whole, engine.WeekendFriSat)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l, err := engine.CountWorkingDays(left, engine.WeekendFriSat)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r, err := engine.CountWorkingDays(right, engine.WeekendFriSat)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l+r != total {
			t.Errorf("split at day %d: %d + %d != %d", day, l, r, total)
		}
	}
}

func TestCountWorkingDays_KnownRanges(t *testing.T) {
	cases := []struct {
		name    string
		r       engine.DateRange
		weekend engine.Weekend
		want    int
	}{
		{
			name:    "jan 1-10 2024 sat/sun",
			r:       span(d(2024, time.January, 1), d(2024, time.January, 10)),
			weekend: engine.WeekendSatSun,
			want:    8,
		},
		{
			name:    "jan 1-5 2024 sat/sun",
			r:       span(d(2024, time.January, 1), d(2024, time.January, 5)),
			weekend: engine.WeekendSatSun,
			want:    5,
		},
		{
			// March 2024 starts on a Friday: 5 Fridays + 5 Saturdays off.
			name:    "march 2024 fri/sat",
			r:       engine.MonthBounds(2024, time.March),
			weekend: engine.WeekendFriSat,
			want:    21,
		},
		{
			name:    "weekend-only range",
			r:       span(d(2024, time.January, 6), d(2024, time.January, 7)),
			weekend: engine.WeekendSatSun,
			want:    0,
		},
	}

	for _, tc := range cases {
		got, err := engine.CountWorkingDays(tc.r, tc.weekend)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %d working days, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCountWorkingDays_InvalidRange(t *testing.T) {
	_, err := engine.CountWorkingDays(span(d(2024, time.May, 2), d(2024, time.May, 1)), engine.WeekendSatSun)
	if !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

// =============================================================================
// MONTH BOUNDS
// =============================================================================

func TestMonthBounds(t *testing.T) {
	feb := engine.MonthBounds(2024, time.February) // leap year
	if feb.Start.String() != "2024-02-01" || feb.End.String() != "2024-02-29" {
		t.Errorf("expected leap February, got %s", feb)
	}

	dec := engine.MonthBounds(2023, time.December)
	if dec.End.String() != "2023-12-31" {
		t.Errorf("expected 2023-12-31, got %s", dec.End)
	}
}

// =============================================================================
// WEEKEND
// =============================================================================

func TestWeekend_ContainsAndEqual(t *testing.T) {
	if !engine.WeekendFriSat.Contains(time.Friday) || engine.WeekendFriSat.Contains(time.Sunday) {
		t.Error("Fri/Sat weekend membership is wrong")
	}
	if !engine.WeekendSatSun.Equal(engine.Weekend{time.Sunday, time.Saturday}) {
		t.Error("Equal should ignore ordering")
	}
	if engine.WeekendSatSun.Equal(engine.WeekendFriSat) {
		t.Error("different weekends should not be equal")
	}
}
