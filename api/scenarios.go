/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates users, employees,
	projects, bookings, and reservations that demonstrate specific
	behavior of the availability engine.

AVAILABLE SCENARIOS:

	studio-kickoff:  Small consultancy at moderate utilization
	crunch-quarter:  Team booked near capacity, next booking will bounce
	holiday-season:  Reservation-heavy month eating into availability

HOW SCENARIOS WORK:
 1. Reset database (clear all data, restore default rules)
 2. Create users (login: demo password below)
 3. Create employees and projects
 4. Create bookings through admission so the audit trail is realistic
 5. Optionally add reservations

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "studio-kickoff"}

All seeded users share the password "demo1234".

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - server.go: Scenario routes stay outside the auth group
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
)

const demoPassword = "demo1234"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "studio-kickoff",
		Name:        "Studio Kickoff",
		Description: "Small consultancy with two projects at moderate utilization",
	},
	{
		ID:          "crunch-quarter",
		Name:        "Crunch Quarter",
		Description: "Team booked near capacity; the next sizeable booking is rejected",
	},
	{
		ID:          "holiday-season",
		Name:        "Holiday Season",
		Description: "Reservations blocking out most of a month's capacity",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:   h.currentScenario,
		Name: h.currentScenario,
	})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "studio-kickoff":
		err = h.loadStudioKickoff(ctx)
	case "crunch-quarter":
		err = h.loadCrunchQuarter(ctx)
	case "holiday-season":
		err = h.loadHolidaySeason(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedUser(ctx context.Context, email, fullName string, role engine.UserRole) (engine.UserID, error) {
	hash, err := HashPassword(demoPassword)
	if err != nil {
		return "", err
	}
	u := engine.User{
		ID:           engine.UserID(uuid.NewString()),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Store.SaveUser(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (h *Handler) seedEmployee(ctx context.Context, name, department, position string, manager engine.UserID) (engine.EmployeeID, error) {
	now := time.Now().UTC()
	emp := engine.Employee{
		ID:            engine.EmployeeID(uuid.NewString()),
		FullName:      name,
		Department:    department,
		Position:      position,
		LineManagerID: manager,
		Status:        engine.EmployeeActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return "", err
	}
	return emp.ID, nil
}

func (h *Handler) seedProject(ctx context.Context, code, name string, status engine.ProjectStatus, progress int, architect engine.UserID) (engine.ProjectID, error) {
	now := time.Now().UTC()
	p := engine.Project{
		ID:          engine.ProjectID(uuid.NewString()),
		Code:        code,
		Name:        name,
		Status:      status,
		Progress:    progress,
		ArchitectID: architect,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Store.SaveProject(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// seedBooking goes through admission, so seeded data obeys the same
// capacity rules as live traffic and shows up in the audit trail.
func (h *Handler) seedBooking(ctx context.Context, project engine.ProjectID, emp engine.EmployeeID, window engine.DateRange, totalHours float64, role string, actor engine.UserID) error {
	_, err := h.Admission.AdmitBooking(ctx, engine.BookingRequest{
		ProjectID:   project,
		EmployeeID:  emp,
		Range:       window,
		BookedHours: decimal.NewFromFloat(totalHours),
		Role:        role,
		ActorID:     actor,
	})
	if err != nil {
		return fmt.Errorf("seed booking for %s: %w", emp, err)
	}
	return nil
}

func (h *Handler) seedReservation(ctx context.Context, emp engine.EmployeeID, window engine.DateRange, hoursPerDay float64, reason string, actor engine.UserID) error {
	_, err := h.Admission.AdmitReservation(ctx, engine.ReservationRequest{
		EmployeeID:  emp,
		Range:       window,
		HoursPerDay: decimal.NewFromFloat(hoursPerDay),
		Reason:      reason,
		ActorID:     actor,
	})
	if err != nil {
		return fmt.Errorf("seed reservation for %s: %w", emp, err)
	}
	return nil
}

// =============================================================================
// SCENARIO: STUDIO KICKOFF
// =============================================================================

// loadStudioKickoff seeds a small consultancy: two departments, two
// active projects, utilization around half of capacity.
func (h *Handler) loadStudioKickoff(ctx context.Context) error {
	admin, err := h.seedUser(ctx, "admin@example.com", "Alex Admin", engine.RoleAdmin)
	if err != nil {
		return err
	}
	manager, err := h.seedUser(ctx, "manager@example.com", "Maya Manager", engine.RoleManager)
	if err != nil {
		return err
	}
	architect, err := h.seedUser(ctx, "architect@example.com", "Omar Architect", engine.RoleArchitect)
	if err != nil {
		return err
	}

	type seed struct {
		name, dept, position string
	}
	var employees []engine.EmployeeID
	for _, s := range []seed{
		{"Dana Farid", "Engineering", "Senior Engineer"},
		{"Lina Haddad", "Engineering", "Engineer"},
		{"Sami Noor", "Design", "Product Designer"},
		{"Rami Aziz", "Design", "UX Researcher"},
	} {
		id, err := h.seedEmployee(ctx, s.name, s.dept, s.position, manager)
		if err != nil {
			return err
		}
		employees = append(employees, id)
	}

	portal, err := h.seedProject(ctx, "PRJ-001", "Customer Portal", engine.ProjectActive, 35, architect)
	if err != nil {
		return err
	}
	billing, err := h.seedProject(ctx, "PRJ-002", "Billing Revamp", engine.ProjectActive, 10, architect)
	if err != nil {
		return err
	}
	if _, err := h.seedProject(ctx, "PRJ-003", "Mobile App", engine.ProjectPlanned, 0, architect); err != nil {
		return err
	}

	year := engine.Today().Year()
	thisMonth := engine.MonthBounds(year, engine.Today().Month())
	nextMonth := engine.MonthBounds(thisMonth.End.AddDays(1).Year(), thisMonth.End.AddDays(1).Month())

	// Roughly half of a ~120h month each.
	if err := h.seedBooking(ctx, portal, employees[0], thisMonth, 60, "Backend", admin); err != nil {
		return err
	}
	if err := h.seedBooking(ctx, portal, employees[2], thisMonth, 48, "Design", admin); err != nil {
		return err
	}
	if err := h.seedBooking(ctx, billing, employees[1], thisMonth, 54, "Backend", admin); err != nil {
		return err
	}
	if err := h.seedBooking(ctx, billing, employees[1], nextMonth, 60, "Backend", admin); err != nil {
		return err
	}

	return h.seedReservation(ctx, employees[3], nextMonth, 2, "Conference prep", admin)
}

// =============================================================================
// SCENARIO: CRUNCH QUARTER
// =============================================================================

// loadCrunchQuarter books a two-person team close to the ceiling so the
// next sizeable booking attempt demonstrates a capacity rejection.
func (h *Handler) loadCrunchQuarter(ctx context.Context) error {
	admin, err := h.seedUser(ctx, "admin@example.com", "Alex Admin", engine.RoleAdmin)
	if err != nil {
		return err
	}
	manager, err := h.seedUser(ctx, "manager@example.com", "Maya Manager", engine.RoleManager)
	if err != nil {
		return err
	}

	first, err := h.seedEmployee(ctx, "Dana Farid", "Engineering", "Senior Engineer", manager)
	if err != nil {
		return err
	}
	second, err := h.seedEmployee(ctx, "Lina Haddad", "Engineering", "Engineer", manager)
	if err != nil {
		return err
	}

	launch, err := h.seedProject(ctx, "PRJ-101", "Launch Hardening", engine.ProjectActive, 70, "")
	if err != nil {
		return err
	}

	year := engine.Today().Year()
	month := engine.MonthBounds(year, engine.Today().Month())

	// ~120h capacity in a default month; leave only a sliver free.
	if err := h.seedBooking(ctx, launch, first, month, 100, "Backend", admin); err != nil {
		return err
	}
	if err := h.seedBooking(ctx, launch, second, month, 110, "Backend", admin); err != nil {
		return err
	}
	return h.seedReservation(ctx, first, month, 0.5, "On-call rotation", admin)
}

// =============================================================================
// SCENARIO: HOLIDAY SEASON
// =============================================================================

// loadHolidaySeason fills next month with vacation reservations so the
// dashboard shows availability collapsing without any project work.
func (h *Handler) loadHolidaySeason(ctx context.Context) error {
	admin, err := h.seedUser(ctx, "admin@example.com", "Alex Admin", engine.RoleAdmin)
	if err != nil {
		return err
	}
	manager, err := h.seedUser(ctx, "manager@example.com", "Maya Manager", engine.RoleManager)
	if err != nil {
		return err
	}

	var employees []engine.EmployeeID
	for _, name := range []string{"Dana Farid", "Lina Haddad", "Sami Noor"} {
		id, err := h.seedEmployee(ctx, name, "Engineering", "Engineer", manager)
		if err != nil {
			return err
		}
		employees = append(employees, id)
	}

	keepWarm, err := h.seedProject(ctx, "PRJ-201", "Maintenance Rotation", engine.ProjectActive, 50, "")
	if err != nil {
		return err
	}

	nextStart := engine.MonthBounds(engine.Today().Year(), engine.Today().Month()).End.AddDays(1)
	nextMonth := engine.MonthBounds(nextStart.Year(), nextStart.Month())

	// Two of three out at full rate; the third carries a small booking.
	if err := h.seedReservation(ctx, employees[0], nextMonth, 6, "Annual leave", admin); err != nil {
		return err
	}
	if err := h.seedReservation(ctx, employees[1], nextMonth, 6, "Annual leave", admin); err != nil {
		return err
	}
	return h.seedBooking(ctx, keepWarm, employees[2], nextMonth, 40, "Maintenance", admin)
}
