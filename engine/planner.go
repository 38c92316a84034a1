/*
planner.go - Availability over stored records

PURPOSE:
  Thin orchestration between the stores and the pure availability
  computation: load the candidate bookings and reservations for a window,
  resolve the employee's effective rules, compute. This is what the HTTP
  layer and the dashboard aggregator call per employee/period.
*/
package engine

import (
	"context"
	"time"
)

// Planner computes availability for stored employees. Stateless; safe for
// concurrent use.
type Planner struct {
	Employees    EmployeeStore
	Bookings     BookingStore
	Reservations ReservationStore
	Rules        *Rules
}

// Availability computes the employee's capacity breakdown for a window.
func (p *Planner) Availability(ctx context.Context, employeeID EmployeeID, window DateRange) (Availability, RuleSet, error) {
	if err := window.Validate(); err != nil {
		return Availability{}, RuleSet{}, err
	}
	if _, err := p.Employees.GetEmployee(ctx, employeeID); err != nil {
		return Availability{}, RuleSet{}, err
	}
	rules, err := p.Rules.Effective(ctx, employeeID)
	if err != nil {
		return Availability{}, RuleSet{}, err
	}
	bookings, err := p.Bookings.BookingsOverlapping(ctx, employeeID, window)
	if err != nil {
		return Availability{}, RuleSet{}, err
	}
	reservations, err := p.Reservations.ActiveReservationsOverlapping(ctx, employeeID, window)
	if err != nil {
		return Availability{}, RuleSet{}, err
	}
	avail, err := ComputeAvailability(rules, window, bookings, reservations)
	if err != nil {
		return Availability{}, RuleSet{}, err
	}
	return avail, rules, nil
}

// YearSchedule computes the employee's availability for each calendar
// month of a year. Index 0 is January.
func (p *Planner) YearSchedule(ctx context.Context, employeeID EmployeeID, year int) ([12]Availability, error) {
	var out [12]Availability
	for month := time.January; month <= time.December; month++ {
		avail, _, err := p.Availability(ctx, employeeID, MonthBounds(year, month))
		if err != nil {
			return out, err
		}
		out[int(month)-1] = avail
	}
	return out, nil
}

// AvailabilityFunc adapts the planner for AggregateResources.
func (p *Planner) AvailabilityFunc() AvailabilityFunc {
	return func(ctx context.Context, emp Employee, window DateRange) (Availability, RuleSet, error) {
		return p.Availability(ctx, emp.ID, window)
	}
}
