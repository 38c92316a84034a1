// Package store provides an in-memory engine.Store implementation.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.Store with maps and a mutex. Overlap queries do
// exact range checks; the engine re-checks anyway.
type Memory struct {
	mu           sync.RWMutex
	employees    map[engine.EmployeeID]engine.Employee
	projects     map[engine.ProjectID]engine.Project
	bookings     map[engine.BookingID]engine.Booking
	reservations map[engine.ReservationID]engine.Reservation
	users        map[engine.UserID]engine.User
	overrides    map[engine.EmployeeID]engine.RuleOverride
	global       engine.RuleSet
	audit        []engine.AuditEntry

	lockMu sync.Mutex
	locks  map[engine.EmployeeID]*sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[engine.EmployeeID]engine.Employee),
		projects:     make(map[engine.ProjectID]engine.Project),
		bookings:     make(map[engine.BookingID]engine.Booking),
		reservations: make(map[engine.ReservationID]engine.Reservation),
		users:        make(map[engine.UserID]engine.User),
		overrides:    make(map[engine.EmployeeID]engine.RuleOverride),
		global:       engine.DefaultRules(),
		locks:        make(map[engine.EmployeeID]*sync.Mutex),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, engine.ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *Memory) ListEmployees(_ context.Context, filter engine.EmployeeFilter) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Employee
	for _, emp := range m.employees {
		if !filter.IncludeInactive && !emp.IsActive() {
			continue
		}
		if filter.LineManagerID != "" && emp.LineManagerID != filter.LineManagerID {
			continue
		}
		if filter.Department != "" && emp.Department != filter.Department {
			continue
		}
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

// DeleteEmployee cascades to the employee's reservations and bookings.
func (m *Memory) DeleteEmployee(_ context.Context, id engine.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return engine.ErrEmployeeNotFound
	}
	delete(m.employees, id)
	delete(m.overrides, id)
	for bid, b := range m.bookings {
		if b.EmployeeID == id {
			delete(m.bookings, bid)
		}
	}
	for rid, r := range m.reservations {
		if r.EmployeeID == id {
			delete(m.reservations, rid)
		}
	}
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) SaveProject(_ context.Context, p engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Code == p.Code && existing.ID != p.ID {
			return engine.ErrDuplicateProjectCode
		}
	}
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) GetProject(_ context.Context, id engine.ProjectID) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, engine.ErrProjectNotFound
	}
	return &p, nil
}

func (m *Memory) GetProjectByCode(_ context.Context, code string) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, engine.ErrProjectNotFound
}

func (m *Memory) ListProjects(_ context.Context) ([]engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// DeleteProject cascades to the project's bookings.
func (m *Memory) DeleteProject(_ context.Context, id engine.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return engine.ErrProjectNotFound
	}
	delete(m.projects, id)
	for bid, b := range m.bookings {
		if b.ProjectID == id {
			delete(m.bookings, bid)
		}
	}
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (m *Memory) SaveBooking(_ context.Context, b engine.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id engine.BookingID) (*engine.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, engine.ErrBookingNotFound
	}
	return &b, nil
}

func (m *Memory) BookingsOverlapping(_ context.Context, employeeID engine.EmployeeID, r engine.DateRange) ([]engine.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Booking
	for _, b := range m.bookings {
		if b.EmployeeID != employeeID || !b.CountsAgainstCapacity() {
			continue
		}
		if _, ok := engine.Overlap(b.Range, r); ok {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (m *Memory) BookingsByProject(_ context.Context, projectID engine.ProjectID) ([]engine.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Booking
	for _, b := range m.bookings {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (m *Memory) BookingsByEmployee(_ context.Context, employeeID engine.EmployeeID) ([]engine.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Booking
	for _, b := range m.bookings {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (m *Memory) ProjectBookingStats(_ context.Context, projectID engine.ProjectID) (engine.BookingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := engine.BookingStats{}
	seen := make(map[engine.EmployeeID]struct{})
	for _, b := range m.bookings {
		if b.ProjectID != projectID || !b.CountsAgainstCapacity() {
			continue
		}
		stats.TotalBookings++
		stats.TotalHours = stats.TotalHours.Add(b.BookedHours)
		seen[b.EmployeeID] = struct{}{}
	}
	stats.UniqueEmployees = len(seen)
	return stats, nil
}

func sortBookings(bs []engine.Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].Range.Start.Before(bs[j].Range.Start) })
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (m *Memory) SaveReservation(_ context.Context, r engine.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
	return nil
}

func (m *Memory) GetReservation(_ context.Context, id engine.ReservationID) (*engine.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, engine.ErrReservationNotFound
	}
	return &r, nil
}

func (m *Memory) ActiveReservationsOverlapping(_ context.Context, employeeID engine.EmployeeID, rng engine.DateRange) ([]engine.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Reservation
	for _, r := range m.reservations {
		if r.EmployeeID != employeeID || !r.IsActive() {
			continue
		}
		if _, ok := engine.Overlap(r.Range, rng); ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func (m *Memory) ReservationsByEmployee(_ context.Context, employeeID engine.EmployeeID, includeCancelled bool) ([]engine.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Reservation
	for _, r := range m.reservations {
		if r.EmployeeID != employeeID {
			continue
		}
		if !includeCancelled && !r.IsActive() {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Range.Start.Before(out[i].Range.Start) })
	return out, nil
}

// =============================================================================
// RULES
// =============================================================================

func (m *Memory) GlobalRules(_ context.Context) (engine.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global, nil
}

func (m *Memory) SetGlobalRules(_ context.Context, rules engine.RuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = rules
	return nil
}

func (m *Memory) Override(_ context.Context, employeeID engine.EmployeeID) (*engine.RuleOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.overrides[employeeID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *Memory) SetOverride(_ context.Context, employeeID engine.EmployeeID, override engine.RuleOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[employeeID] = override
	return nil
}

func (m *Memory) ClearOverride(_ context.Context, employeeID engine.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, employeeID)
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u engine.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id engine.UserID) (*engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, engine.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, engine.ErrUserNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// =============================================================================
// LOCKING
// =============================================================================

// WithEmployeeLock serializes fn per employee with a lazily created mutex.
func (m *Memory) WithEmployeeLock(ctx context.Context, employeeID engine.EmployeeID, fn func(ctx context.Context) error) error {
	m.lockMu.Lock()
	lock, ok := m.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[employeeID] = lock
	}
	m.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

// =============================================================================
// AUDIT
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry engine.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, employeeID engine.EmployeeID, limit int) ([]engine.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		entry := m.audit[i]
		if employeeID != "" && entry.EmployeeID != employeeID {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset drops everything and restores default rules.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = make(map[engine.EmployeeID]engine.Employee)
	m.projects = make(map[engine.ProjectID]engine.Project)
	m.bookings = make(map[engine.BookingID]engine.Booking)
	m.reservations = make(map[engine.ReservationID]engine.Reservation)
	m.users = make(map[engine.UserID]engine.User)
	m.overrides = make(map[engine.EmployeeID]engine.RuleOverride)
	m.global = engine.DefaultRules()
	m.audit = nil
	return nil
}
