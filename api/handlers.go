/*
handlers.go - HTTP API handlers for the staffing engine

PURPOSE:
  Exposes the availability engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login               Exchange credentials for a token

  Employees:
    GET    /api/employees                List employees (filter by manager, department)
    POST   /api/employees                Create employee
    GET    /api/employees/{id}           Get employee details
    PUT    /api/employees/{id}           Update employee
    DELETE /api/employees/{id}           Delete employee (cascades)
    GET    /api/employees/{id}/availability  Availability over a window
    GET    /api/employees/{id}/schedule  Monthly availability for a year
    GET    /api/employees/{id}/bookings  Booking history
    GET    /api/employees/{id}/reservations  Reservations
    POST   /api/employees/{id}/reservations  Create reservation

  Projects:
    GET    /api/projects                 List projects
    POST   /api/projects                 Create project
    GET    /api/projects/{id}            Get project
    PUT    /api/projects/{id}            Update project
    DELETE /api/projects/{id}            Delete project (cascades)
    GET    /api/projects/{id}/bookings   Project bookings
    POST   /api/projects/{id}/bookings   Book an employee onto the project

  Bookings / Reservations:
    POST   /api/bookings/check           Dry-run capacity check
    POST   /api/bookings/{id}/cancel     Cancel booking
    POST   /api/reservations/{id}/cancel Cancel reservation

  Settings:
    GET    /api/settings/rules           Global capacity rules
    PUT    /api/settings/rules           Update global rules
    GET    /api/settings/rules/overrides/{employeeID}  Per-employee override
    PUT    /api/settings/rules/overrides/{employeeID}  Set override
    DELETE /api/settings/rules/overrides/{employeeID}  Clear override

  Dashboards:
    GET    /api/dashboard/resources      Org-wide availability rollup
    GET    /api/dashboard/projects       Project portfolio rollup

  Misc:
    GET    /api/audit                    Audit trail
    GET    /api/scenarios                List demo scenarios
    POST   /api/scenarios/load           Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid token
  - 404: Resource not found
  - 409: Conflict (capacity exhausted, overlap, duplicate code)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token issuing and verification
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     engine.Store
	Rules     *engine.Rules
	Planner   *engine.Planner
	Admission *engine.Admission
	Auth      *Auth

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler wires the domain services over a store.
func NewHandler(store engine.Store, auth *Auth) *Handler {
	rules := engine.NewRules(store)
	return &Handler{
		Store: store,
		Rules: rules,
		Planner: &engine.Planner{
			Employees:    store,
			Bookings:     store,
			Reservations: store,
			Rules:        rules,
		},
		Admission: &engine.Admission{
			Employees:    store,
			Projects:     store,
			Bookings:     store,
			Reservations: store,
			Rules:        rules,
			Locker:       store,
			Audit:        store,
		},
		Auth: auth,
	}
}

// =============================================================================
// AUTH
// =============================================================================

// Login verifies credentials and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil || !CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Auth.IssueToken(*user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   string(user.ID),
		FullName: user.FullName,
		Role:     string(user.Role),
	})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns employees, optionally filtered by line manager
// or department.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := engine.EmployeeFilter{
		LineManagerID:   engine.UserID(r.URL.Query().Get("manager_id")),
		Department:      r.URL.Query().Get("department"),
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	}

	employees, err := h.Store.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required", nil)
		return
	}

	now := time.Now().UTC()
	emp := engine.Employee{
		ID:            engine.EmployeeID(uuid.NewString()),
		FullName:      req.FullName,
		Department:    req.Department,
		Position:      req.Position,
		LineManagerID: engine.UserID(req.LineManagerID),
		Status:        engine.EmployeeActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Status != "" {
		emp.Status = engine.EmployeeStatus(req.Status)
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// UpdateEmployee replaces the mutable fields of an employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}

	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.FullName != "" {
		emp.FullName = req.FullName
	}
	emp.Department = req.Department
	emp.Position = req.Position
	emp.LineManagerID = engine.UserID(req.LineManagerID)
	if req.Status != "" {
		emp.Status = engine.EmployeeStatus(req.Status)
	}
	emp.UpdatedAt = time.Now().UTC()

	if err := h.Store.SaveEmployee(r.Context(), *emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeleteEmployee removes an employee and, by cascade, their bookings
// and reservations.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// EmployeeAvailability computes the availability breakdown for a window.
// Optional booked_hours triggers a dry-run admission check on top.
func (h *Handler) EmployeeAvailability(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	if raw := r.URL.Query().Get("booked_hours"); raw != "" {
		proposed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid booked_hours", err)
			return
		}
		avail, err := h.Admission.CheckBooking(r.Context(), id, window, proposed)
		if err != nil {
			writeDomainError(w, "Capacity check failed", err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityDTO(avail))
		return
	}

	avail, _, err := h.Planner.Availability(r.Context(), id, window)
	if err != nil {
		writeDomainError(w, "Failed to compute availability", err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityDTO(avail))
}

// EmployeeSchedule returns twelve monthly availability rows for a year.
func (h *Handler) EmployeeSchedule(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	months, err := h.Planner.YearSchedule(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, "Failed to compute schedule", err)
		return
	}

	dtos := make([]MonthAvailabilityDTO, 0, 12)
	for i, avail := range months {
		dtos = append(dtos, MonthAvailabilityDTO{
			Month:           i + 1,
			AvailabilityDTO: toAvailabilityDTO(avail),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EmployeeBookings returns the employee's booking history.
func (h *Handler) EmployeeBookings(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}

	bookings, err := h.Store.BookingsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EmployeeReservations lists the employee's reservations.
func (h *Handler) EmployeeReservations(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}

	includeCancelled := r.URL.Query().Get("include_cancelled") == "true"
	reservations, err := h.Store.ReservationsByEmployee(r.Context(), id, includeCancelled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservations", err)
		return
	}
	dtos := make([]ReservationDTO, 0, len(reservations))
	for _, res := range reservations {
		dtos = append(dtos, toReservationDTO(res))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateReservation blocks out capacity for the employee.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	window, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	reservation, err := h.Admission.AdmitReservation(r.Context(), engine.ReservationRequest{
		EmployeeID:  id,
		Range:       window,
		HoursPerDay: decimal.NewFromFloat(req.HoursPerDay),
		Reason:      req.Reason,
		ActorID:     identity.UserID,
	})
	if err != nil {
		writeDomainError(w, "Reservation rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(*reservation))
}

// CancelReservation releases a reservation's capacity.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := engine.ReservationID(chi.URLParam(r, "id"))
	identity, _ := IdentityFrom(r.Context())

	reservation, err := h.Admission.CancelReservation(r.Context(), id, identity.UserID)
	if err != nil {
		writeDomainError(w, "Failed to cancel reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*reservation))
}

// =============================================================================
// PROJECTS
// =============================================================================

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject registers a new project. Codes are unique.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "code and name are required", nil)
		return
	}

	now := time.Now().UTC()
	project := engine.Project{
		ID:          engine.ProjectID(uuid.NewString()),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Status:      engine.ProjectPlanned,
		ArchitectID: engine.UserID(req.ArchitectID),
		Attachments: req.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyProjectRequest(&project, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project fields", err)
		return
	}

	if err := h.Store.SaveProject(r.Context(), project); err != nil {
		writeDomainError(w, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// GetProject returns one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// UpdateProject replaces the mutable fields of a project.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Code != "" {
		project.Code = req.Code
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	project.Description = req.Description
	project.ArchitectID = engine.UserID(req.ArchitectID)
	if req.Attachments != nil {
		project.Attachments = req.Attachments
	}
	if err := applyProjectRequest(project, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project fields", err)
		return
	}
	project.UpdatedAt = time.Now().UTC()

	if err := h.Store.SaveProject(r.Context(), *project); err != nil {
		writeDomainError(w, "Failed to update project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// DeleteProject removes a project and, by cascade, its bookings.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteProject(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// applyProjectRequest folds the optional fields shared by create and
// update: status, progress, and date bounds.
func applyProjectRequest(project *engine.Project, req SaveProjectRequest) error {
	if req.Status != "" {
		project.Status = engine.ProjectStatus(req.Status)
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return &engine.OutOfRangeError{
				Value: decimal.NewFromInt(int64(*req.Progress)),
				Max:   decimal.NewFromInt(100),
			}
		}
		project.Progress = *req.Progress
	}
	if req.StartDate != "" {
		d, err := engine.ParseDate(req.StartDate)
		if err != nil {
			return err
		}
		project.Start = &d
	}
	if req.EndDate != "" {
		d, err := engine.ParseDate(req.EndDate)
		if err != nil {
			return err
		}
		project.End = &d
	}
	if project.Start != nil && project.End != nil {
		return engine.NewDateRange(*project.Start, *project.End).Validate()
	}
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

// ProjectBookings lists a project's bookings.
func (h *Handler) ProjectBookings(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetProject(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	bookings, err := h.Store.BookingsByProject(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBooking books an employee onto the project, subject to
// capacity admission.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	projectID := engine.ProjectID(chi.URLParam(r, "id"))

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	window, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	booking, err := h.Admission.AdmitBooking(r.Context(), engine.BookingRequest{
		ProjectID:   projectID,
		EmployeeID:  engine.EmployeeID(req.EmployeeID),
		Range:       window,
		BookedHours: decimal.NewFromFloat(req.BookedHours),
		Role:        req.Role,
		ActorID:     identity.UserID,
	})
	if err != nil {
		writeDomainError(w, "Booking rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(*booking))
}

// CheckBooking dry-runs a booking against current capacity without
// persisting anything.
func (h *Handler) CheckBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	window, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	avail, err := h.Admission.CheckBooking(r.Context(), engine.EmployeeID(req.EmployeeID), window, decimal.NewFromFloat(req.BookedHours))
	if err != nil {
		writeDomainError(w, "Capacity check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityDTO(avail))
}

// CancelBooking releases a booking's capacity.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := engine.BookingID(chi.URLParam(r, "id"))
	identity, _ := IdentityFrom(r.Context())

	booking, err := h.Admission.CancelBooking(r.Context(), id, identity.UserID)
	if err != nil {
		writeDomainError(w, "Failed to cancel booking", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(*booking))
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetRules returns the global capacity rules.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.GlobalRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rules", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleSetDTO(rules))
}

// UpdateRules partially updates the global capacity rules. Subsequent
// computations see the new values immediately.
func (h *Handler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	var req UpdateRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rules, err := h.Store.GlobalRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rules", err)
		return
	}

	if req.HoursPerWorkingDay != nil {
		if *req.HoursPerWorkingDay <= 0 || *req.HoursPerWorkingDay > 24 {
			writeError(w, http.StatusBadRequest, "work_hours_per_day must be in (0, 24]", nil)
			return
		}
		rules.HoursPerWorkingDay = decimal.NewFromFloat(*req.HoursPerWorkingDay)
	}
	if req.WorkingDaysPerMonth != nil {
		if *req.WorkingDaysPerMonth <= 0 || *req.WorkingDaysPerMonth > 31 {
			writeError(w, http.StatusBadRequest, "work_days_per_month must be in (0, 31]", nil)
			return
		}
		rules.WorkingDaysPerMonth = decimal.NewFromFloat(*req.WorkingDaysPerMonth)
	}
	if req.Weekend != nil {
		weekend, err := parseWeekend(req.Weekend)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid weekend_days", err)
			return
		}
		rules.Weekend = weekend
	}

	if err := h.Rules.UpdateGlobal(r.Context(), rules); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update rules", err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	_ = h.Store.AppendAudit(r.Context(), engine.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   identity.UserID,
		Action:    engine.AuditRulesChanged,
		Detail:    "global rules updated",
	})

	writeJSON(w, http.StatusOK, toRuleSetDTO(rules))
}

// GetRuleOverride returns the employee's override, or the empty object
// when none exists.
func (h *Handler) GetRuleOverride(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "employeeID"))
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}

	override, err := h.Store.Override(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load override", err)
		return
	}

	resp := UpdateRulesRequest{}
	if override != nil {
		if override.HoursPerWorkingDay != nil {
			f, _ := override.HoursPerWorkingDay.Float64()
			resp.HoursPerWorkingDay = &f
		}
		if override.WorkingDaysPerMonth != nil {
			f, _ := override.WorkingDaysPerMonth.Float64()
			resp.WorkingDaysPerMonth = &f
		}
		if override.Weekend != nil {
			resp.Weekend = make([]int, len(override.Weekend))
			for i, d := range override.Weekend {
				resp.Weekend[i] = int(d)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetRuleOverride upserts a per-employee rule override. An empty body
// clears it.
func (h *Handler) SetRuleOverride(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "employeeID"))
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}

	var req UpdateRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var override engine.RuleOverride
	if req.HoursPerWorkingDay != nil {
		d := decimal.NewFromFloat(*req.HoursPerWorkingDay)
		override.HoursPerWorkingDay = &d
	}
	if req.WorkingDaysPerMonth != nil {
		d := decimal.NewFromFloat(*req.WorkingDaysPerMonth)
		override.WorkingDaysPerMonth = &d
	}
	if req.Weekend != nil {
		weekend, err := parseWeekend(req.Weekend)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid weekend_days", err)
			return
		}
		override.Weekend = weekend
	}

	if err := h.Rules.SetOverride(r.Context(), id, override); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set override", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClearRuleOverride removes a per-employee override.
func (h *Handler) ClearRuleOverride(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "employeeID"))
	if err := h.Rules.ClearOverride(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear override", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DASHBOARDS
// =============================================================================

// ResourceDashboard rolls up org-wide availability for a year. Managers
// can scope it to their reports via manager_id.
func (h *Handler) ResourceDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	filter := engine.EmployeeFilter{
		LineManagerID: engine.UserID(r.URL.Query().Get("manager_id")),
	}
	employees, err := h.Store.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dash, err := engine.AggregateResources(r.Context(), employees, year, time.Now().UTC().Month(), h.Planner.AvailabilityFunc())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate resources", err)
		return
	}

	resp := ResourceDashboardDTO{
		Year:                dash.Year,
		TotalEmployees:      dash.TotalEmployees,
		Managers:            dash.ManagerCount,
		TotalAvailableHours: hours(dash.TotalAvailableHours()),
		MonthlySummary:      make([]MonthlySummaryDTO, 0, 12),
		Departments:         make([]DepartmentDTO, 0, len(dash.Departments)),
	}
	for i, m := range dash.Months {
		resp.MonthlySummary = append(resp.MonthlySummary, MonthlySummaryDTO{
			Month:           i + 1,
			TotalAvailable:  hours(m.TotalAvailable),
			TotalBooked:     hours(m.TotalBooked),
			TotalCapacity:   hours(m.TotalCapacity),
			EmployeeCount:   m.EmployeeCount,
			UtilizationRate: rate(m.UtilizationRate),
		})
	}
	for name, dept := range dash.Departments {
		resp.Departments = append(resp.Departments, DepartmentDTO{
			Name:                name,
			EmployeeCount:       dept.EmployeeCount,
			TotalAvailableHours: hours(dept.TotalAvailableHours),
		})
	}
	sort.Slice(resp.Departments, func(i, j int) bool {
		return resp.Departments[i].Name < resp.Departments[j].Name
	})

	writeJSON(w, http.StatusOK, resp)
}

// ProjectDashboard rolls up the project portfolio. Architects can scope
// it to their projects via architect_id.
func (h *Handler) ProjectDashboard(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	if architect := r.URL.Query().Get("architect_id"); architect != "" {
		filtered := projects[:0]
		for _, p := range projects {
			if p.ArchitectID == engine.UserID(architect) {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	dash, err := engine.AggregateProjects(r.Context(), projects, h.Store.ProjectBookingStats)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate projects", err)
		return
	}

	resp := ProjectDashboardDTO{
		TotalProjects:   dash.TotalProjects,
		StatusCounts:    make(map[string]int, len(dash.StatusCounts)),
		AverageProgress: rate(dash.AverageProgress),
		TotalBookings:   dash.TotalBookings,
		Projects:        make([]ProjectSummaryDTO, 0, len(dash.Projects)),
	}
	for status, count := range dash.StatusCounts {
		resp.StatusCounts[string(status)] = count
	}
	for _, summary := range dash.Projects {
		resp.Projects = append(resp.Projects, ProjectSummaryDTO{
			ProjectDTO: toProjectDTO(summary.Project),
			BookingStats: BookingStatsDTO{
				TotalBookings:   summary.Stats.TotalBookings,
				TotalHours:      hours(summary.Stats.TotalHours),
				UniqueEmployees: summary.Stats.UniqueEmployees,
			},
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditTrail returns recent audit entries, optionally scoped to one
// employee.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	entries, err := h.Store.QueryAudit(r.Context(), engine.EmployeeID(r.URL.Query().Get("employee_id")), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit log", err)
		return
	}

	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, AuditEntryDTO{
			ID:         e.ID,
			Timestamp:  e.Timestamp.Format(time.RFC3339),
			ActorID:    string(e.ActorID),
			Action:     string(e.Action),
			EmployeeID: string(e.EmployeeID),
			ProjectID:  string(e.ProjectID),
			Detail:     e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses: not-found to
// 404, conflicts to 409, validation to 400, anything else to 500.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseRange(start, end string) (engine.DateRange, error) {
	s, err := engine.ParseDate(start)
	if err != nil {
		return engine.DateRange{}, err
	}
	e, err := engine.ParseDate(end)
	if err != nil {
		return engine.DateRange{}, err
	}
	r := engine.NewDateRange(s, e)
	return r, r.Validate()
}

func parseWindow(r *http.Request) (engine.DateRange, error) {
	return parseRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
}

func parseYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().UTC().Year(), nil
	}
	return strconv.Atoi(raw)
}

func parseWeekend(days []int) (engine.Weekend, error) {
	weekend := make(engine.Weekend, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, &engine.OutOfRangeError{
				Value: decimal.NewFromInt(int64(d)),
				Max:   decimal.NewFromInt(6),
			}
		}
		weekend = append(weekend, time.Weekday(d))
	}
	return weekend, nil
}
