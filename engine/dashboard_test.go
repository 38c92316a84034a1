package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// flatAvailability returns the same breakdown for every employee and
// month: capacity 120, 40 utilized, 80 available.
func flatAvailability(ctx context.Context, emp engine.Employee, window engine.DateRange) (engine.Availability, engine.RuleSet, error) {
	return engine.Availability{
		Window:         window,
		TotalUtilized:  decimal.NewFromInt(40),
		AvailableHours: decimal.NewFromInt(80),
	}, engine.DefaultRules(), nil
}

func emp(id, dept string, manager engine.UserID) engine.Employee {
	return engine.Employee{
		ID:            engine.EmployeeID(id),
		FullName:      id,
		Department:    dept,
		LineManagerID: manager,
		Status:        engine.EmployeeActive,
	}
}

// =============================================================================
// RESOURCE DASHBOARD
// =============================================================================

func TestAggregateResources_MonthlyRollup(t *testing.T) {
	// GIVEN: Three employees at 40/120 utilization each
	// THEN: Every month sums them and reports 33.33% utilization

	employees := []engine.Employee{
		emp("e1", "Engineering", "mgr-1"),
		emp("e2", "Engineering", "mgr-1"),
		emp("e3", "Design", "mgr-2"),
	}

	dash, err := engine.AggregateResources(context.Background(), employees, 2024, time.June, flatAvailability)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dash.TotalEmployees != 3 {
		t.Errorf("expected 3 employees, got %d", dash.TotalEmployees)
	}
	for i, m := range dash.Months {
		if m.EmployeeCount != 3 {
			t.Errorf("month %d: expected 3 employees, got %d", i+1, m.EmployeeCount)
		}
		decEqual(t, 240, m.TotalAvailable, "month available")
		decEqual(t, 120, m.TotalBooked, "month booked")
		decEqual(t, 360, m.TotalCapacity, "month capacity")
		// 120/360 × 100
		want := decimal.NewFromInt(120).Div(decimal.NewFromInt(360)).Mul(decimal.NewFromInt(100))
		if !m.UtilizationRate.Equal(want) {
			t.Errorf("month %d: expected %v utilization, got %v", i+1, want, m.UtilizationRate)
		}
	}
}

func TestAggregateResources_ManagerCountDistinct(t *testing.T) {
	// Two employees under the same manager count that manager once;
	// an employee with no manager adds nothing.

	employees := []engine.Employee{
		emp("e1", "Engineering", "mgr-1"),
		emp("e2", "Engineering", "mgr-1"),
		emp("e3", "Design", "mgr-2"),
		emp("e4", "Design", ""),
	}

	dash, err := engine.AggregateResources(context.Background(), employees, 2024, time.June, flatAvailability)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dash.ManagerCount != 2 {
		t.Errorf("expected 2 distinct managers, got %d", dash.ManagerCount)
	}
}

func TestAggregateResources_DepartmentSnapshotIsCurrentMonthOnly(t *testing.T) {
	// The per-department figure is a single-month snapshot, not a yearly
	// sum: one employee at 80 available per month shows 80, not 960.

	employees := []engine.Employee{emp("e1", "Engineering", "mgr-1")}

	dash, err := engine.AggregateResources(context.Background(), employees, 2024, time.June, flatAvailability)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dept := dash.Departments["Engineering"]
	if dept == nil {
		t.Fatal("missing Engineering department")
	}
	if dept.EmployeeCount != 1 {
		t.Errorf("expected 1 employee, got %d", dept.EmployeeCount)
	}
	decEqual(t, 80, dept.TotalAvailableHours, "current-month snapshot")
	decEqual(t, 80, dash.TotalAvailableHours(), "total across departments")
}

func TestAggregateResources_ZeroCapacityUtilization(t *testing.T) {
	// No employees means zero capacity; utilization reports 0, not NaN.

	dash, err := engine.AggregateResources(context.Background(), nil, 2024, time.June, flatAvailability)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, m := range dash.Months {
		if !m.UtilizationRate.IsZero() {
			t.Errorf("month %d: expected 0 utilization, got %v", i+1, m.UtilizationRate)
		}
	}
}

// =============================================================================
// PROJECT DASHBOARD
// =============================================================================

func TestAggregateProjects_StatusCountsAndProgress(t *testing.T) {
	// GIVEN: Two active projects (progress 40 and 60), one completed (100)
	// THEN: Average progress covers active only: (40+60)/2 = 50

	projects := []engine.Project{
		{ID: "p1", Status: engine.ProjectActive, Progress: 40},
		{ID: "p2", Status: engine.ProjectActive, Progress: 60},
		{ID: "p3", Status: engine.ProjectCompleted, Progress: 100},
		{ID: "p4", Status: engine.ProjectPlanned, Progress: 0},
	}
	stats := func(ctx context.Context, id engine.ProjectID) (engine.BookingStats, error) {
		return engine.BookingStats{TotalBookings: 2, TotalHours: decimal.NewFromInt(50), UniqueEmployees: 1}, nil
	}

	dash, err := engine.AggregateProjects(context.Background(), projects, stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dash.TotalProjects != 4 {
		t.Errorf("expected 4 projects, got %d", dash.TotalProjects)
	}
	if dash.StatusCounts[engine.ProjectActive] != 2 ||
		dash.StatusCounts[engine.ProjectCompleted] != 1 ||
		dash.StatusCounts[engine.ProjectPlanned] != 1 ||
		dash.StatusCounts[engine.ProjectCancelled] != 0 {
		t.Errorf("wrong status counts: %v", dash.StatusCounts)
	}
	decEqual(t, 50, dash.AverageProgress, "average over active only")
	if dash.TotalBookings != 8 {
		t.Errorf("expected 8 bookings, got %d", dash.TotalBookings)
	}
	if len(dash.Projects) != 4 {
		t.Errorf("expected 4 summaries, got %d", len(dash.Projects))
	}
}

func TestAggregateProjects_NoActiveProjects(t *testing.T) {
	projects := []engine.Project{{ID: "p1", Status: engine.ProjectPlanned}}
	stats := func(ctx context.Context, id engine.ProjectID) (engine.BookingStats, error) {
		return engine.BookingStats{TotalHours: decimal.Zero}, nil
	}

	dash, err := engine.AggregateProjects(context.Background(), projects, stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dash.AverageProgress.IsZero() {
		t.Errorf("expected 0 average progress, got %v", dash.AverageProgress)
	}
}
