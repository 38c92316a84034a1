/*
errors.go - Centralized error types for the staffing engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  The HTTP layer maps these to user-facing responses; nothing in the
  engine retries or swallows them.

ERROR CATEGORIES:
  1. Range errors - inverted or malformed date ranges
  2. Admission errors - capacity, overlap, and bound violations
  3. Lookup errors - missing employees, projects, bookings, reservations

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, engine.ErrInsufficientCapacity) {
        var capErr *engine.InsufficientCapacityError
        errors.As(err, &capErr)
        // render capErr.Available, capErr.TotalUtilized, ...
    }

SEE ALSO:
  - admission.go: Produces the admission errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInsufficientCapacity is returned when a proposed booking exceeds
	// the employee's remaining hours in the proposed window.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrReservationOverlap is returned when a proposed reservation
	// date-overlaps an existing active reservation for the same employee.
	ErrReservationOverlap = errors.New("overlapping reservation")

	// ErrBookingOverlap is returned when the overlap policy hard-rejects
	// date-overlapping bookings for the same employee.
	ErrBookingOverlap = errors.New("overlapping booking")

	// ErrHoursOutOfRange is returned when hours-per-day falls outside
	// [0, hours_per_working_day] under the employee's effective rules.
	ErrHoursOutOfRange = errors.New("hours per day out of range")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrReservationNotFound is returned when a referenced reservation doesn't exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateProjectCode is returned when creating a project with a
	// code that already exists.
	ErrDuplicateProjectCode = errors.New("duplicate project code")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports an inverted date range.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InsufficientCapacityError carries the full availability breakdown so the
// caller can render an explanatory message.
type InsufficientCapacityError struct {
	EmployeeID       EmployeeID
	Window           DateRange
	Requested        decimal.Decimal
	Available        decimal.Decimal
	TotalUtilized    decimal.Decimal
	BookingHours     decimal.Decimal
	ReservationHours decimal.Decimal
	MaxCapacity      decimal.Decimal
	WorkingDays      int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf(
		"cannot book %s hours: only %s available in %s (utilized %s = %s booked + %s reserved, capacity %s over %d working days)",
		e.Requested.StringFixed(1), e.Available.StringFixed(1), e.Window,
		e.TotalUtilized.StringFixed(1), e.BookingHours.StringFixed(1),
		e.ReservationHours.StringFixed(1), e.MaxCapacity.StringFixed(1), e.WorkingDays)
}

func (e *InsufficientCapacityError) Unwrap() error { return ErrInsufficientCapacity }

// OverlapError reports a date-range collision with an existing record.
type OverlapError struct {
	EmployeeID EmployeeID
	Proposed   DateRange
	Existing   DateRange
	ExistingID string
	Kind       string // "reservation" or "booking"
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s %s overlaps existing %s %s (%s)",
		e.Kind, e.Proposed, e.Kind, e.Existing, e.ExistingID)
}

func (e *OverlapError) Unwrap() error {
	if e.Kind == "booking" {
		return ErrBookingOverlap
	}
	return ErrReservationOverlap
}

// OutOfRangeError reports an hours-per-day value outside the configured bound.
type OutOfRangeError struct {
	Value decimal.Decimal
	Max   decimal.Decimal
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("hours per day must be between 0 and %s, got %s",
		e.Max.StringFixed(1), e.Value.StringFixed(1))
}

func (e *OutOfRangeError) Unwrap() error { return ErrHoursOutOfRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrHoursOutOfRange) ||
		errors.Is(err, ErrDuplicateProjectCode)
}

// IsConflict returns true if the error is an admission rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrReservationOverlap) ||
		errors.Is(err, ErrBookingOverlap)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
