/*
Package sqlite provides the SQLite-backed implementation of engine.Store.

PURPOSE:
  Implements all persistence interfaces the engine consumes (entities,
  overlap queries, business rules, users, audit log, per-employee locks)
  on SQLite. The same SQL carries to PostgreSQL with minor dialect
  changes.

ENCODING:
  Dates:    YYYY-MM-DD strings, so lexical comparison is date comparison
            and overlap queries stay in SQL.
  Hours:    decimal text, parsed with shopspring/decimal. Never floats.
  Weekend:  JSON array of weekday numbers (time.Weekday values).

OVERLAP QUERIES:
  start_date <= ? AND end_date >= ? covers every overlap case for closed
  ranges. The engine re-checks exact overlap against its own calendar, so
  this query only needs to avoid false negatives.

CONCURRENCY:
  Opened with WAL and foreign keys on. A per-employee in-process mutex
  map backs WithEmployeeLock; a multi-process deployment would replace it
  with row-level locking in a transaction.

USAGE:
  store, err := sqlite.New("./data/staffing.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - migrations.go: Versioned schema
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB

	lockMu sync.Mutex
	locks  map[engine.EmployeeID]*sync.Mutex
}

// New creates a SQLite store and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db, locks: make(map[engine.EmployeeID]*sync.Mutex)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func encodeDate(d engine.Date) string { return d.String() }

func decodeDate(s string) (engine.Date, error) {
	return engine.ParseDate(s)
}

func encodeOptionalDate(d *engine.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decodeOptionalDate(ns sql.NullString) (*engine.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decodeDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeWeekend(w engine.Weekend) (string, error) {
	days := make([]int, len(w))
	for i, d := range w {
		days[i] = int(d)
	}
	b, err := json.Marshal(days)
	return string(b), err
}

func decodeWeekend(s string) (engine.Weekend, error) {
	var days []int
	if err := json.Unmarshal([]byte(s), &days); err != nil {
		return nil, err
	}
	w := make(engine.Weekend, len(days))
	for i, d := range days {
		w[i] = time.Weekday(d)
	}
	return w, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp engine.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, full_name, department, position, line_manager_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			department = excluded.department,
			position = excluded.position,
			line_manager_id = excluded.line_manager_id,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(emp.ID), emp.FullName, emp.Department, emp.Position,
		string(emp.LineManagerID), string(emp.Status),
		encodeTime(emp.CreatedAt), encodeTime(emp.UpdatedAt))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, department, position, line_manager_id, status, created_at, updated_at
		FROM employees WHERE id = ?`, string(id))
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter engine.EmployeeFilter) ([]engine.Employee, error) {
	query := `SELECT id, full_name, department, position, line_manager_id, status, created_at, updated_at
		FROM employees WHERE 1=1`
	var args []any
	if !filter.IncludeInactive {
		query += ` AND status = 'active'`
	}
	if filter.LineManagerID != "" {
		query += ` AND line_manager_id = ?`
		args = append(args, string(filter.LineManagerID))
	}
	if filter.Department != "" {
		query += ` AND department = ?`
		args = append(args, filter.Department)
	}
	query += ` ORDER BY department, full_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEmployee(ctx context.Context, id engine.EmployeeID) error {
	// ON DELETE CASCADE removes the employee's bookings, reservations,
	// and rule override.
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrEmployeeNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*engine.Employee, error) {
	var emp engine.Employee
	var id, manager, status, createdAt, updatedAt string
	if err := row.Scan(&id, &emp.FullName, &emp.Department, &emp.Position, &manager, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	emp.ID = engine.EmployeeID(id)
	emp.LineManagerID = engine.UserID(manager)
	emp.Status = engine.EmployeeStatus(status)
	emp.CreatedAt = decodeTime(createdAt)
	emp.UpdatedAt = decodeTime(updatedAt)
	return &emp, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) SaveProject(ctx context.Context, p engine.Project) error {
	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE code = ?`, p.Code).Scan(&existing)
	if err == nil && existing != string(p.ID) {
		return engine.ErrDuplicateProjectCode
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	attachments, err := json.Marshal(p.Attachments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, code, name, description, status, progress, architect_id, start_date, end_date, attachments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			progress = excluded.progress,
			architect_id = excluded.architect_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			attachments = excluded.attachments,
			updated_at = excluded.updated_at`,
		string(p.ID), p.Code, p.Name, p.Description, string(p.Status), p.Progress,
		string(p.ArchitectID), encodeOptionalDate(p.Start), encodeOptionalDate(p.End),
		string(attachments), encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt))
	return err
}

const projectColumns = `id, code, name, description, status, progress, architect_id, start_date, end_date, attachments, created_at, updated_at`

func (s *Store) GetProject(ctx context.Context, id engine.ProjectID) (*engine.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, string(id))
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetProjectByCode(ctx context.Context, code string) (*engine.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE code = ?`, code)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]engine.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id engine.ProjectID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrProjectNotFound
	}
	return nil
}

func scanProject(row rowScanner) (*engine.Project, error) {
	var p engine.Project
	var id, status, architect, attachments, createdAt, updatedAt string
	var description sql.NullString
	var start, end sql.NullString
	if err := row.Scan(&id, &p.Code, &p.Name, &description, &status, &p.Progress,
		&architect, &start, &end, &attachments, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = engine.ProjectID(id)
	p.Description = description.String
	p.Status = engine.ProjectStatus(status)
	p.ArchitectID = engine.UserID(architect)
	var err error
	if p.Start, err = decodeOptionalDate(start); err != nil {
		return nil, err
	}
	if p.End, err = decodeOptionalDate(end); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attachments), &p.Attachments); err != nil {
		return nil, err
	}
	p.CreatedAt = decodeTime(createdAt)
	p.UpdatedAt = decodeTime(updatedAt)
	return &p, nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (s *Store) SaveBooking(ctx context.Context, b engine.Booking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, project_id, employee_id, start_date, end_date, booked_hours, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			booked_hours = excluded.booked_hours,
			role = excluded.role,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(b.ID), string(b.ProjectID), string(b.EmployeeID),
		encodeDate(b.Range.Start), encodeDate(b.Range.End),
		b.BookedHours.String(), b.Role, string(b.Status),
		encodeTime(b.CreatedAt), encodeTime(b.UpdatedAt))
	return err
}

const bookingColumns = `id, project_id, employee_id, start_date, end_date, booked_hours, role, status, created_at, updated_at`

func (s *Store) GetBooking(ctx context.Context, id engine.BookingID) (*engine.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, string(id))
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) BookingsOverlapping(ctx context.Context, employeeID engine.EmployeeID, r engine.DateRange) ([]engine.Booking, error) {
	return s.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE employee_id = ? AND status != 'cancelled'
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		string(employeeID), encodeDate(r.End), encodeDate(r.Start))
}

func (s *Store) BookingsByProject(ctx context.Context, projectID engine.ProjectID) ([]engine.Booking, error) {
	return s.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE project_id = ? ORDER BY start_date`, string(projectID))
}

func (s *Store) BookingsByEmployee(ctx context.Context, employeeID engine.EmployeeID) ([]engine.Booking, error) {
	return s.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE employee_id = ? ORDER BY start_date`, string(employeeID))
}

func (s *Store) ProjectBookingStats(ctx context.Context, projectID engine.ProjectID) (engine.BookingStats, error) {
	bookings, err := s.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE project_id = ? AND status != 'cancelled'`, string(projectID))
	if err != nil {
		return engine.BookingStats{}, err
	}
	// Hours are decimal text, so the sum happens here, not in SQL.
	stats := engine.BookingStats{TotalHours: decimal.Zero}
	seen := make(map[engine.EmployeeID]struct{})
	for _, b := range bookings {
		stats.TotalBookings++
		stats.TotalHours = stats.TotalHours.Add(b.BookedHours)
		seen[b.EmployeeID] = struct{}{}
	}
	stats.UniqueEmployees = len(seen)
	return stats, nil
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...any) ([]engine.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (*engine.Booking, error) {
	var b engine.Booking
	var id, projectID, employeeID, start, end, hours, status, createdAt, updatedAt string
	if err := row.Scan(&id, &projectID, &employeeID, &start, &end, &hours, &b.Role, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.ID = engine.BookingID(id)
	b.ProjectID = engine.ProjectID(projectID)
	b.EmployeeID = engine.EmployeeID(employeeID)
	var err error
	if b.Range.Start, err = decodeDate(start); err != nil {
		return nil, err
	}
	if b.Range.End, err = decodeDate(end); err != nil {
		return nil, err
	}
	if b.BookedHours, err = decimal.NewFromString(hours); err != nil {
		return nil, err
	}
	b.Status = engine.BookingStatus(status)
	b.CreatedAt = decodeTime(createdAt)
	b.UpdatedAt = decodeTime(updatedAt)
	return &b, nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) SaveReservation(ctx context.Context, r engine.Reservation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, employee_id, start_date, end_date, hours_per_day, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			hours_per_day = excluded.hours_per_day,
			reason = excluded.reason,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(r.ID), string(r.EmployeeID),
		encodeDate(r.Range.Start), encodeDate(r.Range.End),
		r.HoursPerDay.String(), r.Reason, string(r.Status),
		encodeTime(r.CreatedAt), encodeTime(r.UpdatedAt))
	return err
}

const reservationColumns = `id, employee_id, start_date, end_date, hours_per_day, reason, status, created_at, updated_at`

func (s *Store) GetReservation(ctx context.Context, id engine.ReservationID) (*engine.Reservation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, string(id))
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ActiveReservationsOverlapping(ctx context.Context, employeeID engine.EmployeeID, rng engine.DateRange) ([]engine.Reservation, error) {
	return s.queryReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE employee_id = ? AND status = 'active'
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		string(employeeID), encodeDate(rng.End), encodeDate(rng.Start))
}

func (s *Store) ReservationsByEmployee(ctx context.Context, employeeID engine.EmployeeID, includeCancelled bool) ([]engine.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE employee_id = ?`
	if !includeCancelled {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY start_date DESC`
	return s.queryReservations(ctx, query, string(employeeID))
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...any) ([]engine.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner) (*engine.Reservation, error) {
	var r engine.Reservation
	var id, employeeID, start, end, hours, status, createdAt, updatedAt string
	var reason sql.NullString
	if err := row.Scan(&id, &employeeID, &start, &end, &hours, &reason, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.ID = engine.ReservationID(id)
	r.EmployeeID = engine.EmployeeID(employeeID)
	var err error
	if r.Range.Start, err = decodeDate(start); err != nil {
		return nil, err
	}
	if r.Range.End, err = decodeDate(end); err != nil {
		return nil, err
	}
	if r.HoursPerDay, err = decimal.NewFromString(hours); err != nil {
		return nil, err
	}
	r.Reason = reason.String
	r.Status = engine.ReservationStatus(status)
	r.CreatedAt = decodeTime(createdAt)
	r.UpdatedAt = decodeTime(updatedAt)
	return &r, nil
}

// =============================================================================
// RULES
// =============================================================================

func (s *Store) GlobalRules(ctx context.Context) (engine.RuleSet, error) {
	var hours, days, weekend string
	err := s.db.QueryRowContext(ctx, `
		SELECT hours_per_working_day, working_days_per_month, weekend
		FROM global_rules WHERE id = 1`).Scan(&hours, &days, &weekend)
	if err == sql.ErrNoRows {
		// Nothing stored yet: the shipped defaults apply.
		return engine.DefaultRules(), nil
	}
	if err != nil {
		return engine.RuleSet{}, err
	}

	var rules engine.RuleSet
	if rules.HoursPerWorkingDay, err = decimal.NewFromString(hours); err != nil {
		return engine.RuleSet{}, err
	}
	if rules.WorkingDaysPerMonth, err = decimal.NewFromString(days); err != nil {
		return engine.RuleSet{}, err
	}
	if rules.Weekend, err = decodeWeekend(weekend); err != nil {
		return engine.RuleSet{}, err
	}
	return rules, nil
}

func (s *Store) SetGlobalRules(ctx context.Context, rules engine.RuleSet) error {
	weekend, err := encodeWeekend(rules.Weekend)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO global_rules (id, hours_per_working_day, working_days_per_month, weekend, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hours_per_working_day = excluded.hours_per_working_day,
			working_days_per_month = excluded.working_days_per_month,
			weekend = excluded.weekend,
			updated_at = excluded.updated_at`,
		rules.HoursPerWorkingDay.String(), rules.WorkingDaysPerMonth.String(),
		weekend, encodeTime(time.Now()))
	return err
}

func (s *Store) Override(ctx context.Context, employeeID engine.EmployeeID) (*engine.RuleOverride, error) {
	var hours, days, weekend sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT hours_per_working_day, working_days_per_month, weekend
		FROM rule_overrides WHERE employee_id = ?`, string(employeeID)).
		Scan(&hours, &days, &weekend)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var o engine.RuleOverride
	if hours.Valid {
		d, err := decimal.NewFromString(hours.String)
		if err != nil {
			return nil, err
		}
		o.HoursPerWorkingDay = &d
	}
	if days.Valid {
		d, err := decimal.NewFromString(days.String)
		if err != nil {
			return nil, err
		}
		o.WorkingDaysPerMonth = &d
	}
	if weekend.Valid {
		w, err := decodeWeekend(weekend.String)
		if err != nil {
			return nil, err
		}
		o.Weekend = w
	}
	return &o, nil
}

func (s *Store) SetOverride(ctx context.Context, employeeID engine.EmployeeID, override engine.RuleOverride) error {
	var hours, days, weekend sql.NullString
	if override.HoursPerWorkingDay != nil {
		hours = sql.NullString{String: override.HoursPerWorkingDay.String(), Valid: true}
	}
	if override.WorkingDaysPerMonth != nil {
		days = sql.NullString{String: override.WorkingDaysPerMonth.String(), Valid: true}
	}
	if override.Weekend != nil {
		encoded, err := encodeWeekend(override.Weekend)
		if err != nil {
			return err
		}
		weekend = sql.NullString{String: encoded, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_overrides (employee_id, hours_per_working_day, working_days_per_month, weekend, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			hours_per_working_day = excluded.hours_per_working_day,
			working_days_per_month = excluded.working_days_per_month,
			weekend = excluded.weekend,
			updated_at = excluded.updated_at`,
		string(employeeID), hours, days, weekend, encodeTime(time.Now()))
	return err
}

func (s *Store) ClearOverride(ctx context.Context, employeeID engine.EmployeeID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rule_overrides WHERE employee_id = ?`, string(employeeID))
	return err
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u engine.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			role = excluded.role,
			password_hash = excluded.password_hash`,
		string(u.ID), u.Email, u.FullName, string(u.Role), u.PasswordHash, encodeTime(u.CreatedAt))
	return err
}

func (s *Store) GetUser(ctx context.Context, id engine.UserID) (*engine.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at FROM users WHERE id = ?`, string(id))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*engine.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]engine.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (*engine.User, error) {
	var u engine.User
	var id, role, createdAt string
	if err := row.Scan(&id, &u.Email, &u.FullName, &role, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	u.ID = engine.UserID(id)
	u.Role = engine.UserRole(role)
	u.CreatedAt = decodeTime(createdAt)
	return &u, nil
}

// =============================================================================
// LOCKING
// =============================================================================

// WithEmployeeLock serializes fn per employee. In-process only; a
// multi-process deployment needs a database-level lock here.
func (s *Store) WithEmployeeLock(ctx context.Context, employeeID engine.EmployeeID, fn func(ctx context.Context) error) error {
	s.lockMu.Lock()
	lock, ok := s.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[employeeID] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry engine.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, ts, actor_id, action, employee_id, project_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, encodeTime(entry.Timestamp), string(entry.ActorID),
		string(entry.Action), string(entry.EmployeeID), string(entry.ProjectID), entry.Detail)
	return err
}

func (s *Store) QueryAudit(ctx context.Context, employeeID engine.EmployeeID, limit int) ([]engine.AuditEntry, error) {
	query := `SELECT id, ts, actor_id, action, employee_id, project_id, detail FROM audit_log`
	var args []any
	if employeeID != "" {
		query += ` WHERE employee_id = ?`
		args = append(args, string(employeeID))
	}
	query += ` ORDER BY ts DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.AuditEntry
	for rows.Next() {
		var e engine.AuditEntry
		var ts, actor, action, employee, project string
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &ts, &actor, &action, &employee, &project, &detail); err != nil {
			return nil, err
		}
		e.Timestamp = decodeTime(ts)
		e.ActorID = engine.UserID(actor)
		e.Action = engine.AuditAction(action)
		e.EmployeeID = engine.EmployeeID(employee)
		e.ProjectID = engine.ProjectID(project)
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// RESET
// =============================================================================

// Reset wipes all rows and restores default global rules. Schema and
// migration history survive.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Children before parents; FK cascades would cover most of this,
	// but the explicit order keeps it obvious.
	tables := []string{
		"audit_log", "bookings", "reservations", "rule_overrides",
		"employees", "projects", "users", "global_rules",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.SetGlobalRules(ctx, engine.DefaultRules())
}
