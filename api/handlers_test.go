/*
handlers_test.go - End-to-end tests for the HTTP API

Tests run the full stack: router, auth middleware, handlers, domain
services, and the SQLite store in memory.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
	token   string
}

// newTestServer builds the full stack over an in-memory database, seeds
// an admin user, and logs in.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	auth := &Auth{Secret: []byte("test-secret")}
	handler := NewHandler(store, auth)
	router := NewRouter(handler)

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, store.SaveUser(context.Background(), engine.User{
		ID:           "user-admin",
		Email:        "admin@example.com",
		FullName:     "Alex Admin",
		Role:         engine.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}))

	ts := &testServer{handler: handler, router: router}

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "admin@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var login LoginResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	ts.token = login.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// get issues an authenticated request and decodes the JSON response.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (ts *testServer) createEmployee(t *testing.T, name string) EmployeeDTO {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/employees", ts.token, SaveEmployeeRequest{
		FullName:   name,
		Department: "Engineering",
		Position:   "Engineer",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[EmployeeDTO](t, resp)
}

func (ts *testServer) createProject(t *testing.T, code, name string) ProjectDTO {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/projects", ts.token, SaveProjectRequest{
		Code: code,
		Name: name,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[ProjectDTO](t, resp)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_ProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/employees", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/employees", ts.token, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "admin@example.com", Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "nobody@example.com", Password: "hunter22",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_HealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CRUD(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createEmployee(t, "Dana Farid")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "active", created.Status)

	resp := ts.do(t, http.MethodGet, "/api/employees/"+created.ID, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[EmployeeDTO](t, resp)
	assert.Equal(t, "Dana Farid", got.FullName)

	resp = ts.do(t, http.MethodPut, "/api/employees/"+created.ID, ts.token, SaveEmployeeRequest{
		FullName:   "Dana F.",
		Department: "Platform",
		Position:   "Staff Engineer",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	got = decode[EmployeeDTO](t, resp)
	assert.Equal(t, "Platform", got.Department)

	resp = ts.do(t, http.MethodGet, "/api/employees", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[[]EmployeeDTO](t, resp)
	assert.Len(t, list, 1)

	resp = ts.do(t, http.MethodDelete, "/api/employees/"+created.ID, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/employees/"+created.ID, ts.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEmployees_MissingName(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/employees", ts.token, SaveEmployeeRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// =============================================================================
// BOOKING FLOW
// =============================================================================

// testWindow is 2024-01-07 (Sun) through 2024-01-11 (Thu): 5 working
// days under the default Fri/Sat weekend, 30 hours of capacity.
const (
	winStart = "2024-01-07"
	winEnd   = "2024-01-11"
)

func TestBookings_AdmitThenOverbook(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")
	prj := ts.createProject(t, "PRJ-001", "Customer Portal")

	// Within capacity.
	resp := ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 25,
		Role:        "Backend",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	booked := decode[BookingDTO](t, resp)
	assert.Equal(t, "booked", booked.Status)
	assert.Equal(t, 25.0, booked.BookedHours)

	// 10 more do not fit into the remaining 5.
	resp = ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 10,
	})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	// Availability reflects the admitted booking only.
	resp = ts.do(t, http.MethodGet,
		"/api/employees/"+emp.ID+"/availability?start_date="+winStart+"&end_date="+winEnd, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	avail := decode[AvailabilityDTO](t, resp)
	assert.Equal(t, 5, avail.WorkingDays)
	assert.Equal(t, 30.0, avail.MaxCapacity)
	assert.Equal(t, 25.0, avail.TotalBookedHours)
	assert.Equal(t, 5.0, avail.AvailableHours)

	// Cancelling returns the hours.
	resp = ts.do(t, http.MethodPost, "/api/bookings/"+booked.ID+"/cancel", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet,
		"/api/employees/"+emp.ID+"/availability?start_date="+winStart+"&end_date="+winEnd, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	avail = decode[AvailabilityDTO](t, resp)
	assert.Equal(t, 30.0, avail.AvailableHours)
}

func TestBookings_CheckIsDryRun(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")

	resp := ts.do(t, http.MethodPost, "/api/bookings/check", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 10,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Too large: conflict, and still nothing persisted.
	resp = ts.do(t, http.MethodPost, "/api/bookings/check", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 40,
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/employees/"+emp.ID+"/bookings", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]BookingDTO](t, resp))
}

func TestBookings_InvalidRange(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")
	prj := ts.createProject(t, "PRJ-001", "Customer Portal")

	resp := ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winEnd,
		EndDate:     winStart, // inverted
		BookedHours: 10,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBookings_UnknownEmployee(t *testing.T) {
	ts := newTestServer(t)
	prj := ts.createProject(t, "PRJ-001", "Customer Portal")

	resp := ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  "ghost",
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 10,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// =============================================================================
// RESERVATION FLOW
// =============================================================================

func TestReservations_OverlapAndBounds(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")
	base := "/api/employees/" + emp.ID + "/reservations"

	resp := ts.do(t, http.MethodPost, base, ts.token, CreateReservationRequest{
		StartDate:   winStart,
		EndDate:     winEnd,
		HoursPerDay: 2,
		Reason:      "training",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[ReservationDTO](t, resp)

	// Overlapping reservation is a hard reject.
	resp = ts.do(t, http.MethodPost, base, ts.token, CreateReservationRequest{
		StartDate:   "2024-01-11",
		EndDate:     "2024-01-15",
		HoursPerDay: 1,
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Rate above the daily ceiling (default 6h) is invalid input.
	resp = ts.do(t, http.MethodPost, base, ts.token, CreateReservationRequest{
		StartDate:   "2024-02-01",
		EndDate:     "2024-02-05",
		HoursPerDay: 7,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Cancel, then the range is free again.
	resp = ts.do(t, http.MethodPost, "/api/reservations/"+created.ID+"/cancel", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodPost, base, ts.token, CreateReservationRequest{
		StartDate:   winStart,
		EndDate:     winEnd,
		HoursPerDay: 2,
	})
	assert.Equal(t, http.StatusCreated, resp.Code)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_RulesAndOverrides(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")

	resp := ts.do(t, http.MethodGet, "/api/settings/rules", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	rules := decode[RuleSetDTO](t, resp)
	assert.Equal(t, 6.0, rules.HoursPerWorkingDay)
	assert.Equal(t, 20.0, rules.WorkingDaysPerMonth)
	assert.ElementsMatch(t, []int{5, 6}, rules.Weekend, "Friday and Saturday")

	eight := 8.0
	resp = ts.do(t, http.MethodPut, "/api/settings/rules", ts.token, UpdateRulesRequest{
		HoursPerWorkingDay: &eight,
		Weekend:            []int{0, 6}, // Sun, Sat
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	rules = decode[RuleSetDTO](t, resp)
	assert.Equal(t, 8.0, rules.HoursPerWorkingDay)
	assert.ElementsMatch(t, []int{0, 6}, rules.Weekend)

	// Per-employee override.
	four := 4.0
	overridePath := "/api/settings/rules/overrides/" + emp.ID
	resp = ts.do(t, http.MethodPut, overridePath, ts.token, UpdateRulesRequest{
		HoursPerWorkingDay: &four,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, overridePath, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	override := decode[UpdateRulesRequest](t, resp)
	require.NotNil(t, override.HoursPerWorkingDay)
	assert.Equal(t, 4.0, *override.HoursPerWorkingDay)

	// The override shows up in availability: Jan 8-11 2024 under a
	// Sun/Sat weekend is 4 working days at 4h.
	resp = ts.do(t, http.MethodGet,
		"/api/employees/"+emp.ID+"/availability?start_date=2024-01-08&end_date=2024-01-11", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	avail := decode[AvailabilityDTO](t, resp)
	assert.Equal(t, 16.0, avail.MaxCapacity)

	resp = ts.do(t, http.MethodDelete, overridePath, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, overridePath, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	override = decode[UpdateRulesRequest](t, resp)
	assert.Nil(t, override.HoursPerWorkingDay)
}

func TestSettings_RejectsBadValues(t *testing.T) {
	ts := newTestServer(t)

	zero := 0.0
	resp := ts.do(t, http.MethodPut, "/api/settings/rules", ts.token, UpdateRulesRequest{
		HoursPerWorkingDay: &zero,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodPut, "/api/settings/rules", ts.token, UpdateRulesRequest{
		Weekend: []int{9},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// =============================================================================
// SCHEDULE AND DASHBOARDS
// =============================================================================

func TestEmployeeSchedule_TwelveMonths(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")

	resp := ts.do(t, http.MethodGet, "/api/employees/"+emp.ID+"/schedule?year=2024", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	months := decode[[]MonthAvailabilityDTO](t, resp)
	require.Len(t, months, 12)
	assert.Equal(t, 1, months[0].Month)
	assert.Equal(t, "2024-01-01", months[0].StartDate)
	assert.Equal(t, 12, months[11].Month)
	assert.Equal(t, "2024-12-31", months[11].EndDate)
}

func TestDashboards_Smoke(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")
	prj := ts.createProject(t, "PRJ-001", "Customer Portal")

	resp := ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 20,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodGet, "/api/dashboard/resources?year=2024", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resources := decode[ResourceDashboardDTO](t, resp)
	assert.Equal(t, 2024, resources.Year)
	assert.Equal(t, 1, resources.TotalEmployees)
	require.Len(t, resources.MonthlySummary, 12)
	assert.Equal(t, 20.0, resources.MonthlySummary[0].TotalBooked, "January carries the booking")
	require.Len(t, resources.Departments, 1)
	assert.Equal(t, "Engineering", resources.Departments[0].Name)

	resp = ts.do(t, http.MethodGet, "/api/dashboard/projects", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	projects := decode[ProjectDashboardDTO](t, resp)
	assert.Equal(t, 1, projects.TotalProjects)
	assert.Equal(t, 1, projects.TotalBookings)
	require.Len(t, projects.Projects, 1)
	assert.Equal(t, 20.0, projects.Projects[0].BookingStats.TotalHours)
}

// =============================================================================
// AUDIT
// =============================================================================

func TestAudit_TrailRecordsAdmissions(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.createEmployee(t, "Dana Farid")
	prj := ts.createProject(t, "PRJ-001", "Customer Portal")

	resp := ts.do(t, http.MethodPost, "/api/projects/"+prj.ID+"/bookings", ts.token, CreateBookingRequest{
		EmployeeID:  emp.ID,
		StartDate:   winStart,
		EndDate:     winEnd,
		BookedHours: 10,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	booked := decode[BookingDTO](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/bookings/"+booked.ID+"/cancel", ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/audit?employee_id="+emp.ID, ts.token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	entries := decode[[]AuditEntryDTO](t, resp)
	require.Len(t, entries, 2)
	assert.Equal(t, "booking_cancelled", entries[0].Action, "newest first")
	assert.Equal(t, "booking_created", entries[1].Action)
	assert.Equal(t, "user-admin", entries[0].ActorID, "actor from the token")
}

// =============================================================================
// PROJECT VALIDATION
// =============================================================================

func TestProjects_DuplicateCodeAndProgressBounds(t *testing.T) {
	ts := newTestServer(t)
	ts.createProject(t, "PRJ-001", "First")

	resp := ts.do(t, http.MethodPost, "/api/projects", ts.token, SaveProjectRequest{
		Code: "PRJ-001", Name: "Clone",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	over := 120
	resp = ts.do(t, http.MethodPost, "/api/projects", ts.token, SaveProjectRequest{
		Code: "PRJ-002", Name: "Second", Progress: &over,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
