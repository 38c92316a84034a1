/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the interface between the domain logic and the database.
  The engine itself performs no I/O; admission and dashboards load
  snapshots through these interfaces and compute over them.

KEY INTERFACES:
  EmployeeStore/ProjectStore:     Entity records
  BookingStore/ReservationStore:  Date-range overlap queries
  RuleStore:                      Global rules + per-employee overrides
  EmployeeLocker:                 Per-employee critical section for
                                  check-then-insert admission
  AuditLog:                       Who booked whom, when

OVERLAP QUERIES ARE COARSE:
  BookingsOverlapping/ActiveReservationsOverlapping may return a superset
  of truly overlapping records; the engine re-checks exact overlap itself.

THE LOCK CONTRACT:
  Admission is check-then-act over shared booking/reservation state. Two
  concurrent admissions for overlapping windows could both pass the
  capacity check and jointly over-book. WithEmployeeLock serializes the
  check and the insert for one employee; implementations may use an
  in-process mutex, a row lock, or an optimistic version.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - admission.go: The check-then-insert consumer of the lock
  - dashboard.go: Read-only consumer
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTITY STORES
// =============================================================================

// EmployeeFilter narrows employee listings. Zero value lists active
// employees across the organization.
type EmployeeFilter struct {
	LineManagerID   UserID // empty = any manager
	Department      string // empty = any department
	IncludeInactive bool
}

type EmployeeStore interface {
	// SaveEmployee inserts or updates an employee record.
	SaveEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns ErrEmployeeNotFound when missing.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)

	// DeleteEmployee hard-deletes an employee and cascades to its
	// reservations and bookings.
	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

type ProjectStore interface {
	// SaveProject inserts or updates. Returns ErrDuplicateProjectCode when
	// another project already owns the code.
	SaveProject(ctx context.Context, p Project) error

	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	GetProjectByCode(ctx context.Context, code string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	// DeleteProject hard-deletes a project and its bookings.
	DeleteProject(ctx context.Context, id ProjectID) error
}

// =============================================================================
// BOOKING / RESERVATION STORES
// =============================================================================

// BookingStats summarizes a project's bookings for dashboards.
type BookingStats struct {
	TotalBookings   int
	TotalHours      decimal.Decimal
	UniqueEmployees int
}

type BookingStore interface {
	SaveBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id BookingID) (*Booking, error)

	// BookingsOverlapping returns the employee's non-cancelled bookings
	// that could overlap the range. May return a superset.
	BookingsOverlapping(ctx context.Context, employeeID EmployeeID, r DateRange) ([]Booking, error)

	BookingsByProject(ctx context.Context, projectID ProjectID) ([]Booking, error)
	BookingsByEmployee(ctx context.Context, employeeID EmployeeID) ([]Booking, error)

	// ProjectBookingStats counts non-cancelled bookings only.
	ProjectBookingStats(ctx context.Context, projectID ProjectID) (BookingStats, error)
}

type ReservationStore interface {
	SaveReservation(ctx context.Context, r Reservation) error
	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)

	// ActiveReservationsOverlapping returns the employee's active
	// reservations that could overlap the range. May return a superset.
	ActiveReservationsOverlapping(ctx context.Context, employeeID EmployeeID, r DateRange) ([]Reservation, error)

	ReservationsByEmployee(ctx context.Context, employeeID EmployeeID, includeCancelled bool) ([]Reservation, error)
}

// =============================================================================
// RULES / USERS
// =============================================================================

type RuleStore interface {
	// GlobalRules returns the process-wide rule set. Implementations seed
	// DefaultRules() when nothing has been stored yet.
	GlobalRules(ctx context.Context) (RuleSet, error)
	SetGlobalRules(ctx context.Context, rules RuleSet) error

	// Override returns nil (no error) when the employee has no override.
	Override(ctx context.Context, employeeID EmployeeID) (*RuleOverride, error)
	SetOverride(ctx context.Context, employeeID EmployeeID, override RuleOverride) error
	ClearOverride(ctx context.Context, employeeID EmployeeID) error
}

type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id UserID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// =============================================================================
// LOCKING - Per-employee critical section
// =============================================================================

// EmployeeLocker serializes admission's check-then-insert per employee.
type EmployeeLocker interface {
	WithEmployeeLock(ctx context.Context, employeeID EmployeeID, fn func(ctx context.Context) error) error
}

// =============================================================================
// AUDIT LOG - Append-only record of admission outcomes
// =============================================================================

type AuditAction string

const (
	AuditBookingCreated     AuditAction = "booking_created"
	AuditBookingCancelled   AuditAction = "booking_cancelled"
	AuditBookingCompleted   AuditAction = "booking_completed"
	AuditReservationCreated AuditAction = "reservation_created"
	AuditReservationCancelled AuditAction = "reservation_cancelled"
	AuditRulesChanged       AuditAction = "rules_changed"
)

// AuditEntry records who did what when. Append-only.
type AuditEntry struct {
	ID         string
	Timestamp  time.Time
	ActorID    UserID
	Action     AuditAction
	EmployeeID EmployeeID
	ProjectID  ProjectID
	Detail     string
}

type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, employeeID EmployeeID, limit int) ([]AuditEntry, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Resetter wipes all stored data and restores default rules. Demo and
// test tooling only.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Store is the full persistence surface the application wires together.
type Store interface {
	EmployeeStore
	ProjectStore
	BookingStore
	ReservationStore
	RuleStore
	UserStore
	EmployeeLocker
	AuditLog
	Resetter
}
