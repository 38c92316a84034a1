/*
dashboard.go - Organization and project rollups

PURPOSE:
  Folds per-employee monthly availability into the numbers the dashboards
  show: a full-year monthly utilization series for the whole population,
  and a current-month snapshot per department.

GRANULARITY ASYMMETRY:
  Per-organization rollups are a 12-month series; per-department rollups
  are a snapshot of the CURRENT month's available hours only. This is
  deliberate and matches how the dashboards render.

MANAGER COUNT:
  The number of DISTINCT line-manager references among the population,
  not the count of managers who happen to be in the population.

SEE ALSO:
  - availability.go: Produces the per-employee numbers folded here
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOURCE DASHBOARD
// =============================================================================

// MonthlySummary accumulates one month across the employee population.
type MonthlySummary struct {
	TotalAvailable  decimal.Decimal
	TotalBooked     decimal.Decimal
	TotalCapacity   decimal.Decimal
	EmployeeCount   int
	UtilizationRate decimal.Decimal // percent; 0 when capacity is 0
}

// DepartmentSnapshot is the current-month view of one department.
type DepartmentSnapshot struct {
	EmployeeCount       int
	TotalAvailableHours decimal.Decimal
}

// ResourceDashboard is the full resources rollup for one year.
type ResourceDashboard struct {
	Year           int
	TotalEmployees int
	ManagerCount   int
	Months         [12]MonthlySummary // index 0 = January
	Departments    map[string]*DepartmentSnapshot
}

// AvailabilityFunc computes one employee's availability for a window,
// returning the effective rules it used. Injected so aggregation stays
// pure over whatever data source the caller has.
type AvailabilityFunc func(ctx context.Context, emp Employee, window DateRange) (Availability, RuleSet, error)

// AggregateResources folds per-employee monthly availability for a year.
// currentMonth drives the per-department snapshot.
func AggregateResources(
	ctx context.Context,
	employees []Employee,
	year int,
	currentMonth time.Month,
	availability AvailabilityFunc,
) (*ResourceDashboard, error) {
	dash := &ResourceDashboard{
		Year:           year,
		TotalEmployees: len(employees),
		Departments:    make(map[string]*DepartmentSnapshot),
	}
	for i := range dash.Months {
		dash.Months[i] = MonthlySummary{
			TotalAvailable: decimal.Zero,
			TotalBooked:    decimal.Zero,
			TotalCapacity:  decimal.Zero,
		}
	}

	managers := make(map[UserID]struct{})
	for _, emp := range employees {
		if emp.LineManagerID != "" {
			managers[emp.LineManagerID] = struct{}{}
		}

		dept := dash.Departments[emp.Department]
		if dept == nil {
			dept = &DepartmentSnapshot{TotalAvailableHours: decimal.Zero}
			dash.Departments[emp.Department] = dept
		}
		dept.EmployeeCount++

		for month := time.January; month <= time.December; month++ {
			window := MonthBounds(year, month)
			avail, rules, err := availability(ctx, emp, window)
			if err != nil {
				return nil, err
			}

			summary := &dash.Months[int(month)-1]
			summary.TotalAvailable = summary.TotalAvailable.Add(avail.AvailableHours)
			summary.TotalBooked = summary.TotalBooked.Add(avail.TotalUtilized)
			summary.TotalCapacity = summary.TotalCapacity.Add(rules.MonthlyCapacity())
			summary.EmployeeCount++

			if month == currentMonth {
				dept.TotalAvailableHours = dept.TotalAvailableHours.Add(avail.AvailableHours)
			}
		}
	}
	dash.ManagerCount = len(managers)

	hundred := decimal.NewFromInt(100)
	for i := range dash.Months {
		summary := &dash.Months[i]
		if summary.TotalCapacity.IsPositive() {
			summary.UtilizationRate = summary.TotalBooked.Div(summary.TotalCapacity).Mul(hundred)
		} else {
			summary.UtilizationRate = decimal.Zero
		}
	}
	return dash, nil
}

// TotalAvailableHours sums the current-month snapshot across departments.
func (d *ResourceDashboard) TotalAvailableHours() decimal.Decimal {
	total := decimal.Zero
	for _, dept := range d.Departments {
		total = total.Add(dept.TotalAvailableHours)
	}
	return total
}

// =============================================================================
// PROJECT DASHBOARD
// =============================================================================

// ProjectSummary pairs a project with its booking stats.
type ProjectSummary struct {
	Project Project
	Stats   BookingStats
}

// ProjectDashboard is the projects rollup.
type ProjectDashboard struct {
	TotalProjects   int
	StatusCounts    map[ProjectStatus]int
	AverageProgress decimal.Decimal // over active projects only
	TotalBookings   int
	Projects        []ProjectSummary
}

// StatsFunc returns booking stats for one project.
type StatsFunc func(ctx context.Context, projectID ProjectID) (BookingStats, error)

// AggregateProjects folds project records and their booking stats.
func AggregateProjects(ctx context.Context, projects []Project, stats StatsFunc) (*ProjectDashboard, error) {
	dash := &ProjectDashboard{
		TotalProjects: len(projects),
		StatusCounts: map[ProjectStatus]int{
			ProjectPlanned:   0,
			ProjectActive:    0,
			ProjectOnHold:    0,
			ProjectCompleted: 0,
			ProjectCancelled: 0,
		},
		AverageProgress: decimal.Zero,
	}

	totalProgress := 0
	activeCount := 0
	for _, p := range projects {
		s, err := stats(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		dash.Projects = append(dash.Projects, ProjectSummary{Project: p, Stats: s})
		dash.TotalBookings += s.TotalBookings
		dash.StatusCounts[p.Status]++
		if p.Status == ProjectActive {
			totalProgress += p.Progress
			activeCount++
		}
	}
	if activeCount > 0 {
		dash.AverageProgress = decimal.NewFromInt(int64(totalProgress)).Div(decimal.NewFromInt(int64(activeCount)))
	}
	return dash, nil
}
