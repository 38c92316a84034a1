/*
admission.go - Check-then-allow decisions for bookings and reservations

PURPOSE:
  Validates a proposed booking or reservation against the availability
  computation before it is persisted. The pure Evaluate* functions take
  snapshots in and return decisions out; the Admission service wraps them
  with record loading, per-employee locking, persistence, and audit.

BOOKING ADMISSION:
  Runs the availability computation over the proposed window using the
  employee's EXISTING non-cancelled bookings and active reservations
  (never the proposed booking itself), then compares the proposed hours
  against the remaining capacity. Rejection carries the full breakdown.

  Whether date-overlapping bookings should be independently rejected is a
  policy knob (RejectOverlappingBookings), not an assumption: hour-based
  admission alone is the default.

RESERVATION ADMISSION:
  Simpler and stricter: reservations disallow date overlap entirely, and
  the hours-per-day rate must lie within [0, hours_per_working_day] under
  the employee's effective rules at creation time.

CONCURRENCY:
  AdmitBooking and AdmitReservation run their check-then-insert under the
  store's per-employee lock. Without it, two concurrent admissions for
  overlapping windows could both pass the capacity check.

SEE ALSO:
  - availability.go: The computation admission is built on
  - store.go: EmployeeLocker, AuditLog
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ADMISSION POLICY
// =============================================================================

// AdmissionPolicy tunes booking admission. The zero value is the default:
// capacity-based admission only, overlapping date ranges allowed as long
// as the hours fit.
type AdmissionPolicy struct {
	// RejectOverlappingBookings additionally hard-rejects any booking whose
	// date range overlaps an existing non-cancelled booking.
	RejectOverlappingBookings bool
}

// =============================================================================
// PURE EVALUATION
// =============================================================================

// EvaluateBooking decides whether a proposed booking fits. On success it
// returns the availability the decision was based on; on rejection the
// error is an InsufficientCapacityError (carrying the same breakdown) or,
// under the overlap policy, an OverlapError.
func EvaluateBooking(
	rules RuleSet,
	policy AdmissionPolicy,
	employeeID EmployeeID,
	proposed DateRange,
	proposedHours decimal.Decimal,
	existingBookings []Booking,
	existingReservations []Reservation,
) (Availability, error) {
	if err := proposed.Validate(); err != nil {
		return Availability{}, err
	}

	if policy.RejectOverlappingBookings {
		for _, b := range existingBookings {
			if !b.CountsAgainstCapacity() {
				continue
			}
			if _, ok := Overlap(b.Range, proposed); ok {
				return Availability{}, &OverlapError{
					EmployeeID: employeeID,
					Proposed:   proposed,
					Existing:   b.Range,
					ExistingID: string(b.ID),
					Kind:       "booking",
				}
			}
		}
	}

	avail, err := ComputeAvailability(rules, proposed, existingBookings, existingReservations)
	if err != nil {
		return Availability{}, err
	}

	if proposedHours.GreaterThan(avail.AvailableHours) {
		return Availability{}, &InsufficientCapacityError{
			EmployeeID:       employeeID,
			Window:           proposed,
			Requested:        proposedHours,
			Available:        avail.AvailableHours,
			TotalUtilized:    avail.TotalUtilized,
			BookingHours:     avail.UtilizedBookingHours,
			ReservationHours: avail.UtilizedReservationHours,
			MaxCapacity:      avail.MaxCapacity,
			WorkingDays:      avail.WorkingDays,
		}
	}
	return avail, nil
}

// EvaluateReservation decides whether a proposed reservation is allowed.
// Unlike bookings, reservations reject date overlap entirely.
func EvaluateReservation(
	rules RuleSet,
	employeeID EmployeeID,
	proposed DateRange,
	hoursPerDay decimal.Decimal,
	existingActive []Reservation,
) error {
	if err := proposed.Validate(); err != nil {
		return err
	}
	if hoursPerDay.IsNegative() || hoursPerDay.GreaterThan(rules.HoursPerWorkingDay) {
		return &OutOfRangeError{Value: hoursPerDay, Max: rules.HoursPerWorkingDay}
	}
	for _, r := range existingActive {
		if !r.IsActive() {
			continue
		}
		if _, ok := Overlap(r.Range, proposed); ok {
			return &OverlapError{
				EmployeeID: employeeID,
				Proposed:   proposed,
				Existing:   r.Range,
				ExistingID: string(r.ID),
				Kind:       "reservation",
			}
		}
	}
	return nil
}

// =============================================================================
// ADMISSION SERVICE - Load, lock, evaluate, persist, audit
// =============================================================================

// Admission wires the pure evaluation into the persistence layer.
type Admission struct {
	Employees    EmployeeStore
	Projects     ProjectStore
	Bookings     BookingStore
	Reservations ReservationStore
	Rules        *Rules
	Locker       EmployeeLocker
	Audit        AuditLog
	Policy       AdmissionPolicy
}

// BookingRequest is a proposed booking entering admission.
type BookingRequest struct {
	ProjectID   ProjectID
	EmployeeID  EmployeeID
	Range       DateRange
	BookedHours decimal.Decimal
	Role        string
	ActorID     UserID
}

// ReservationRequest is a proposed reservation entering admission.
type ReservationRequest struct {
	EmployeeID  EmployeeID
	Range       DateRange
	HoursPerDay decimal.Decimal
	Reason      string
	ActorID     UserID
}

// AdmitBooking checks the proposal and persists the booking when it fits.
// The check and the insert run under the employee's lock.
func (a *Admission) AdmitBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	if _, err := a.Employees.GetEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}
	if _, err := a.Projects.GetProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	var booking *Booking
	err := a.Locker.WithEmployeeLock(ctx, req.EmployeeID, func(ctx context.Context) error {
		rules, err := a.Rules.Effective(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		existingBookings, err := a.Bookings.BookingsOverlapping(ctx, req.EmployeeID, req.Range)
		if err != nil {
			return err
		}
		existingReservations, err := a.Reservations.ActiveReservationsOverlapping(ctx, req.EmployeeID, req.Range)
		if err != nil {
			return err
		}

		if _, err := EvaluateBooking(rules, a.Policy, req.EmployeeID, req.Range, req.BookedHours, existingBookings, existingReservations); err != nil {
			return err
		}

		now := time.Now().UTC()
		booking = &Booking{
			ID:          BookingID(uuid.NewString()),
			ProjectID:   req.ProjectID,
			EmployeeID:  req.EmployeeID,
			Range:       req.Range,
			BookedHours: req.BookedHours,
			Role:        req.Role,
			Status:      BookingBooked,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return a.Bookings.SaveBooking(ctx, *booking)
	})
	if err != nil {
		return nil, err
	}

	a.audit(ctx, AuditEntry{
		ActorID:    req.ActorID,
		Action:     AuditBookingCreated,
		EmployeeID: req.EmployeeID,
		ProjectID:  req.ProjectID,
		Detail:     fmt.Sprintf("%s hours over %s", req.BookedHours.StringFixed(1), req.Range),
	})
	return booking, nil
}

// CheckBooking is a dry-run: same evaluation as AdmitBooking, no lock, no
// write. Used by availability previews.
func (a *Admission) CheckBooking(ctx context.Context, employeeID EmployeeID, proposed DateRange, proposedHours decimal.Decimal) (Availability, error) {
	if _, err := a.Employees.GetEmployee(ctx, employeeID); err != nil {
		return Availability{}, err
	}
	rules, err := a.Rules.Effective(ctx, employeeID)
	if err != nil {
		return Availability{}, err
	}
	bookings, err := a.Bookings.BookingsOverlapping(ctx, employeeID, proposed)
	if err != nil {
		return Availability{}, err
	}
	reservations, err := a.Reservations.ActiveReservationsOverlapping(ctx, employeeID, proposed)
	if err != nil {
		return Availability{}, err
	}
	return EvaluateBooking(rules, a.Policy, employeeID, proposed, proposedHours, bookings, reservations)
}

// AdmitReservation checks the proposal and persists the reservation.
func (a *Admission) AdmitReservation(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	if _, err := a.Employees.GetEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	var reservation *Reservation
	err := a.Locker.WithEmployeeLock(ctx, req.EmployeeID, func(ctx context.Context) error {
		rules, err := a.Rules.Effective(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		existing, err := a.Reservations.ActiveReservationsOverlapping(ctx, req.EmployeeID, req.Range)
		if err != nil {
			return err
		}
		if err := EvaluateReservation(rules, req.EmployeeID, req.Range, req.HoursPerDay, existing); err != nil {
			return err
		}

		now := time.Now().UTC()
		reservation = &Reservation{
			ID:          ReservationID(uuid.NewString()),
			EmployeeID:  req.EmployeeID,
			Range:       req.Range,
			HoursPerDay: req.HoursPerDay,
			Reason:      req.Reason,
			Status:      ReservationActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return a.Reservations.SaveReservation(ctx, *reservation)
	})
	if err != nil {
		return nil, err
	}

	a.audit(ctx, AuditEntry{
		ActorID:    req.ActorID,
		Action:     AuditReservationCreated,
		EmployeeID: req.EmployeeID,
		Detail:     fmt.Sprintf("%s hours/day over %s", req.HoursPerDay.StringFixed(1), req.Range),
	})
	return reservation, nil
}

// CancelBooking flips a booking to cancelled. Status change, not deletion.
func (a *Admission) CancelBooking(ctx context.Context, id BookingID, actor UserID) (*Booking, error) {
	b, err := a.Bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = BookingCancelled
	b.UpdatedAt = time.Now().UTC()
	if err := a.Bookings.SaveBooking(ctx, *b); err != nil {
		return nil, err
	}
	a.audit(ctx, AuditEntry{
		ActorID:    actor,
		Action:     AuditBookingCancelled,
		EmployeeID: b.EmployeeID,
		ProjectID:  b.ProjectID,
		Detail:     fmt.Sprintf("booking %s cancelled", b.ID),
	})
	return b, nil
}

// CancelReservation flips a reservation to cancelled, freeing its capacity
// while keeping the record for audit.
func (a *Admission) CancelReservation(ctx context.Context, id ReservationID, actor UserID) (*Reservation, error) {
	r, err := a.Reservations.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Status = ReservationCancelled
	r.UpdatedAt = time.Now().UTC()
	if err := a.Reservations.SaveReservation(ctx, *r); err != nil {
		return nil, err
	}
	a.audit(ctx, AuditEntry{
		ActorID:    actor,
		Action:     AuditReservationCancelled,
		EmployeeID: r.EmployeeID,
		Detail:     fmt.Sprintf("reservation %s cancelled", r.ID),
	})
	return r, nil
}

// audit appends an entry when an audit log is wired; admission itself
// never fails on audit errors.
func (a *Admission) audit(ctx context.Context, entry AuditEntry) {
	if a.Audit == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()
	_ = a.Audit.AppendAudit(ctx, entry)
}
