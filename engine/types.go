/*
Package engine provides the core resource-scheduling computation engine.

PURPOSE:
  This package contains the domain model and algorithms for tracking
  employees, their date-ranged project bookings and reservations, and for
  computing how many hours of capacity remain in any requested window.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: A staffed person with a department and a line manager
  - Project: The container bookings belong to
  - Booking: A date range with a TOTAL hour scalar, spread across the
    range's working days (see availability.go for pro-rating)
  - Reservation: A date range with an hours-per-day RATE (vacations,
    reserved capacity)
  - User: An account that can log in and manage the above

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all hour quantities
  2. Purity: Engine computations take snapshots in, return results out
  3. Soft deletion: Status transitions, never destructive updates, except
     for explicit cascading hard deletes

SEE ALSO:
  - calendar.go: Date, DateRange, Weekend
  - rules.go: Business rule sets and per-employee overrides
  - availability.go: The capacity computation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	EmployeeID    string
	ProjectID     string
	BookingID     string
	ReservationID string
	UserID        string
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee is a staffed person. Deactivation is a status change; hard
// deletion cascades to the employee's reservations and bookings.
type Employee struct {
	ID            EmployeeID
	FullName      string
	Department    string
	Position      string
	LineManagerID UserID
	Status        EmployeeStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e Employee) IsActive() bool { return e.Status == EmployeeActive }

// =============================================================================
// PROJECT
// =============================================================================

type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "planned"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Project is the container bookings reference. Deleting a project deletes
// its bookings with it.
type Project struct {
	ID          ProjectID
	Code        string // unique
	Name        string
	Description string
	Status      ProjectStatus
	Progress    int // 0..100
	ArchitectID UserID
	Start       *Date // optional bounds
	End         *Date
	Attachments []string // opaque file names, upload handling is elsewhere
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// BOOKING - Total hours over a date range
// =============================================================================

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking assigns an employee to a project for a date range. BookedHours is
// a single scalar covering the ENTIRE range, not a per-day rate; the engine
// assumes it is spread uniformly across the range's working days.
type Booking struct {
	ID          BookingID
	ProjectID   ProjectID
	EmployeeID  EmployeeID
	Range       DateRange
	BookedHours decimal.Decimal
	Role        string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CountsAgainstCapacity reports whether the booking participates in
// availability math. Cancelled bookings never do; completed ones still do.
func (b Booking) CountsAgainstCapacity() bool { return b.Status != BookingCancelled }

// =============================================================================
// RESERVATION - Hours-per-day rate over a date range
// =============================================================================

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation blocks out capacity at an hours-per-day rate (vacation,
// training, reserved slack). Cancellation is a status change, not a
// deletion; cancelled reservations are retained for audit but excluded
// from all availability math.
type Reservation struct {
	ID          ReservationID
	EmployeeID  EmployeeID
	Range       DateRange
	HoursPerDay decimal.Decimal
	Reason      string
	Status      ReservationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Reservation) IsActive() bool { return r.Status == ReservationActive }

// =============================================================================
// USER - Account that manages employees and projects
// =============================================================================

type UserRole string

const (
	RoleManager   UserRole = "manager"
	RoleArchitect UserRole = "architect"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID           UserID
	Email        string
	FullName     string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}
