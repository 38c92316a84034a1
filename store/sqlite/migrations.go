/*
migrations.go - Versioned, ordered, idempotent schema migrations

PURPOSE:
  The schema evolves as a discrete, ordered list of migrations tracked in
  a schema_migrations table. Each migration runs at most once; applying
  the list to an already-migrated database is a no-op. This replaces
  imperative check-and-alter code scattered through startup with testable
  steps.

ADDING A MIGRATION:
  Append to the migrations slice with the next version number. Never
  renumber or edit an applied migration; add a new one.

SEE ALSO:
  - sqlite.go: Runs the list on New()
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// migration is one schema step. Statements run inside a single transaction
// together with the version bookkeeping.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "base schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				full_name TEXT NOT NULL,
				role TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				full_name TEXT NOT NULL,
				department TEXT NOT NULL,
				position TEXT NOT NULL,
				line_manager_id TEXT,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				description TEXT,
				status TEXT NOT NULL DEFAULT 'planned',
				progress INTEGER NOT NULL DEFAULT 0,
				architect_id TEXT,
				start_date TEXT,
				end_date TEXT,
				attachments TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS bookings (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				booked_hours TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'booked',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id TEXT PRIMARY KEY,
				employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				hours_per_day TEXT NOT NULL,
				reason TEXT,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS audit_log (
				id TEXT PRIMARY KEY,
				ts TEXT NOT NULL,
				actor_id TEXT,
				action TEXT NOT NULL,
				employee_id TEXT,
				project_id TEXT,
				detail TEXT
			)`,
		},
	},
	{
		Version: 2,
		Name:    "business rules",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS global_rules (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				hours_per_working_day TEXT NOT NULL,
				working_days_per_month TEXT NOT NULL,
				weekend TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS rule_overrides (
				employee_id TEXT PRIMARY KEY REFERENCES employees(id) ON DELETE CASCADE,
				hours_per_working_day TEXT,
				working_days_per_month TEXT,
				weekend TEXT,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		Version: 3,
		Name:    "overlap query indexes",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_bookings_employee_dates
				ON bookings(employee_id, start_date, end_date)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_project
				ON bookings(project_id)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_employee_dates
				ON reservations(employee_id, start_date, end_date)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_employee
				ON audit_log(employee_id, ts)`,
		},
	},
	{
		Version: 4,
		Name:    "booking role",
		Statements: []string{
			`ALTER TABLE bookings ADD COLUMN role TEXT NOT NULL DEFAULT ''`,
		},
	},
}

// runMigrations applies every pending migration in order.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.Version) <= current.Int64 {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Printf("applied migration %d: %s", m.Version, m.Name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Name, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}
