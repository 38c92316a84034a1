/*
scenarios_test.go - Integration tests for demo scenarios

Each scenario is loaded through the public API, then verified through
the same endpoints a client would use: login with the demo password,
list the seeded data, and exercise the behavior the scenario is built
to demonstrate.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

// loadScenario posts to the public load endpoint and logs in as the
// seeded admin. Loading resets the database, so any prior token is dead.
func loadScenario(t *testing.T, ts *testServer, id string) string {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/scenarios/load", "", map[string]string{
		"scenario_id": id,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "admin@example.com",
		Password: demoPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[LoginResponse](t, resp).Token
}

func TestScenarios_ListAndCurrent(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/scenarios", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[[]ScenarioDTO](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "studio-kickoff", list[0].ID)

	// Nothing loaded yet.
	resp = ts.do(t, http.MethodGet, "/api/scenarios/current", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "null\n", resp.Body.String())

	loadScenario(t, ts, "crunch-quarter")

	resp = ts.do(t, http.MethodGet, "/api/scenarios/current", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	current := decode[ScenarioDTO](t, resp)
	assert.Equal(t, "crunch-quarter", current.ID)
}

func TestScenarios_UnknownID(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/scenarios/load", "", map[string]string{
		"scenario_id": "does-not-exist",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestScenarios_StudioKickoff(t *testing.T) {
	ts := newTestServer(t)
	token := loadScenario(t, ts, "studio-kickoff")

	resp := ts.do(t, http.MethodGet, "/api/employees", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	employees := decode[[]EmployeeDTO](t, resp)
	assert.Len(t, employees, 4)

	resp = ts.do(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	projects := decode[[]ProjectDTO](t, resp)
	assert.Len(t, projects, 3)

	// Seeded bookings flow through admission, so the audit trail has them.
	resp = ts.do(t, http.MethodGet, "/api/audit", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	entries := decode[[]AuditEntryDTO](t, resp)
	assert.GreaterOrEqual(t, len(entries), 4)

	resp = ts.do(t, http.MethodGet, "/api/dashboard/resources", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	dash := decode[ResourceDashboardDTO](t, resp)
	assert.Equal(t, 4, dash.TotalEmployees)
	assert.Len(t, dash.Departments, 2, "Engineering and Design")
}

func TestScenarios_CrunchQuarterRejectsNextBooking(t *testing.T) {
	ts := newTestServer(t)
	token := loadScenario(t, ts, "crunch-quarter")

	resp := ts.do(t, http.MethodGet, "/api/employees", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	employees := decode[[]EmployeeDTO](t, resp)
	require.Len(t, employees, 2)

	resp = ts.do(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	projects := decode[[]ProjectDTO](t, resp)
	require.Len(t, projects, 1)

	// Both employees sit close to the ceiling for the current month, so a
	// 40 hour ask bounces for either of them.
	month := engine.MonthBounds(engine.Today().Year(), engine.Today().Month())
	for _, emp := range employees {
		resp = ts.do(t, http.MethodPost, "/api/projects/"+projects[0].ID+"/bookings", token, CreateBookingRequest{
			EmployeeID:  emp.ID,
			StartDate:   month.Start.String(),
			EndDate:     month.End.String(),
			BookedHours: 40,
		})
		assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
	}
}

func TestScenarios_HolidaySeasonDrainsAvailability(t *testing.T) {
	ts := newTestServer(t)
	token := loadScenario(t, ts, "holiday-season")

	resp := ts.do(t, http.MethodGet, "/api/employees", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	employees := decode[[]EmployeeDTO](t, resp)
	require.Len(t, employees, 3)

	nextStart := engine.MonthBounds(engine.Today().Year(), engine.Today().Month()).End.AddDays(1)
	nextMonth := engine.MonthBounds(nextStart.Year(), nextStart.Month())
	query := "?start_date=" + nextMonth.Start.String() + "&end_date=" + nextMonth.End.String()

	// Two employees are reserved at the full daily rate next month, so
	// their availability there is zero.
	drained := 0
	for _, emp := range employees {
		resp = ts.do(t, http.MethodGet, "/api/employees/"+emp.ID+"/availability"+query, token, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		avail := decode[AvailabilityDTO](t, resp)
		if avail.AvailableHours == 0 {
			drained++
			assert.Equal(t, avail.MaxCapacity, avail.TotalReservedHours)
		}
	}
	assert.Equal(t, 2, drained)
}
