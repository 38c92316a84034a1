/*
availability.go - The capacity computation at the heart of the system

PURPOSE:
  Given an employee's effective rules, a query window, and the bookings
  and reservations that overlap it, compute how many hours of capacity
  remain. Everything else in the repository exists to feed this function
  or to fold its output.

THE ALGORITHM:
  capacity   = working days in window × hours per working day
  bookings   = pro-rated: a booking's total hours are assumed uniformly
               spread across ITS OWN working days; only the fraction whose
               working days fall inside the window counts
  reservations = a rate: hours/day × working days of the overlap
  available  = max(0, capacity − bookings − reservations)

WHY PRO-RATING:
  A booking may span several calendar months or partially enter an
  arbitrary query window. Charging its full hours to every window it
  touches would double-count; charging nothing would under-count. The
  uniform-spread assumption is what the booking's single total-hours
  scalar supports.

DEFENSIVE OVERLAP:
  Callers pre-filter candidates with a coarse date-range query, but this
  function re-checks exact overlap and record status itself. It is correct
  even when handed a superset of candidates.

ZERO-DIVISION GUARD:
  A booking whose entire range falls on non-working days has zero working
  days to spread over. Its contribution is zero; this is never an error.

SEE ALSO:
  - calendar.go: CountWorkingDays, Overlap
  - admission.go, dashboard.go: The two consumers
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AVAILABILITY - Computed capacity state for one employee and window
// =============================================================================

// Availability is the full capacity breakdown for one employee over one
// window. All quantities are full-precision decimals; round only for
// display.
type Availability struct {
	Window      DateRange
	WorkingDays int

	MaxCapacity              decimal.Decimal
	UtilizedBookingHours     decimal.Decimal
	UtilizedReservationHours decimal.Decimal
	TotalUtilized            decimal.Decimal
	AvailableHours           decimal.Decimal
}

// ComputeAvailability computes the capacity breakdown for a window under
// the given rules. Candidate bookings and reservations may be a superset
// of those actually overlapping; non-overlapping, cancelled, and inactive
// records contribute exactly zero. Fails only with InvalidRangeError when
// the window is inverted.
func ComputeAvailability(rules RuleSet, window DateRange, bookings []Booking, reservations []Reservation) (Availability, error) {
	if err := window.Validate(); err != nil {
		return Availability{}, err
	}

	windowWD, err := CountWorkingDays(window, rules.Weekend)
	if err != nil {
		return Availability{}, err
	}

	bookingHours := decimal.Zero
	for _, b := range bookings {
		contribution, err := bookingContribution(rules, window, b)
		if err != nil {
			return Availability{}, err
		}
		bookingHours = bookingHours.Add(contribution)
	}

	reservationHours := decimal.Zero
	for _, r := range reservations {
		contribution, err := reservationContribution(rules, window, r)
		if err != nil {
			return Availability{}, err
		}
		reservationHours = reservationHours.Add(contribution)
	}

	utilized := bookingHours.Add(reservationHours)
	capacity := decimal.NewFromInt(int64(windowWD)).Mul(rules.HoursPerWorkingDay)

	available := capacity.Sub(utilized)
	if available.IsNegative() {
		// Over-allocation reports zero remaining, never negative.
		available = decimal.Zero
	}

	return Availability{
		Window:                   window,
		WorkingDays:              windowWD,
		MaxCapacity:              capacity,
		UtilizedBookingHours:     bookingHours,
		UtilizedReservationHours: reservationHours,
		TotalUtilized:            utilized,
		AvailableHours:           available,
	}, nil
}

// bookingContribution pro-rates a booking's total hours into the window:
// booked_hours × overlap_working_days / total_working_days.
func bookingContribution(rules RuleSet, window DateRange, b Booking) (decimal.Decimal, error) {
	if !b.CountsAgainstCapacity() {
		return decimal.Zero, nil
	}
	if err := b.Range.Validate(); err != nil {
		return decimal.Zero, err
	}
	overlap, ok := Overlap(b.Range, window)
	if !ok {
		return decimal.Zero, nil
	}

	totalWD, err := CountWorkingDays(b.Range, rules.Weekend)
	if err != nil {
		return decimal.Zero, err
	}
	if totalWD == 0 {
		// Booking lies entirely on non-working days: nothing to spread.
		return decimal.Zero, nil
	}
	overlapWD, err := CountWorkingDays(overlap, rules.Weekend)
	if err != nil {
		return decimal.Zero, err
	}

	return b.BookedHours.
		Mul(decimal.NewFromInt(int64(overlapWD))).
		Div(decimal.NewFromInt(int64(totalWD))), nil
}

// reservationContribution charges a reservation as a rate:
// hours_per_day × overlap_working_days. No division, unlike bookings.
func reservationContribution(rules RuleSet, window DateRange, r Reservation) (decimal.Decimal, error) {
	if !r.IsActive() {
		return decimal.Zero, nil
	}
	if err := r.Range.Validate(); err != nil {
		return decimal.Zero, err
	}
	overlap, ok := Overlap(r.Range, window)
	if !ok {
		return decimal.Zero, nil
	}
	overlapWD, err := CountWorkingDays(overlap, rules.Weekend)
	if err != nil {
		return decimal.Zero, err
	}
	return r.HoursPerDay.Mul(decimal.NewFromInt(int64(overlapWD))), nil
}

// MonthAvailability computes availability for a calendar month.
func MonthAvailability(rules RuleSet, year int, month time.Month, bookings []Booking, reservations []Reservation) (Availability, error) {
	window := MonthBounds(year, month)
	return ComputeAvailability(rules, window, bookings, reservations)
}
