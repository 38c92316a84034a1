/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ROUNDING:
  The engine computes in full-precision decimals. Hours cross this
  boundary rounded to one decimal place; this is the ONLY place rounding
  happens.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// ROUNDING HELPERS
// =============================================================================

// hours renders a decimal hour quantity as a JSON number with one decimal.
func hours(d decimal.Decimal) float64 {
	f, _ := d.Round(1).Float64()
	return f
}

// rate renders a utilization percentage with two decimals.
func rate(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func optionalDate(d *engine.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Department    string `json:"department"`
	Position      string `json:"position"`
	LineManagerID string `json:"line_manager_id,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            string(e.ID),
		FullName:      e.FullName,
		Department:    e.Department,
		Position:      e.Position,
		LineManagerID: string(e.LineManagerID),
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

type SaveEmployeeRequest struct {
	FullName      string `json:"full_name"`
	Department    string `json:"department"`
	Position      string `json:"position"`
	LineManagerID string `json:"line_manager_id"`
	Status        string `json:"status,omitempty"`
}

// =============================================================================
// PROJECTS
// =============================================================================

type ProjectDTO struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	ArchitectID string   `json:"architect_id,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Attachments []string `json:"attachments"`
}

func toProjectDTO(p engine.Project) ProjectDTO {
	attachments := p.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return ProjectDTO{
		ID:          string(p.ID),
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Progress:    p.Progress,
		ArchitectID: string(p.ArchitectID),
		StartDate:   optionalDate(p.Start),
		EndDate:     optionalDate(p.End),
		Attachments: attachments,
	}
}

type SaveProjectRequest struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	Progress    *int     `json:"progress,omitempty"`
	ArchitectID string   `json:"architect_id"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// =============================================================================
// BOOKINGS / RESERVATIONS
// =============================================================================

type BookingDTO struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	EmployeeID  string  `json:"employee_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	BookedHours float64 `json:"booked_hours"`
	Role        string  `json:"role,omitempty"`
	Status      string  `json:"status"`
}

func toBookingDTO(b engine.Booking) BookingDTO {
	return BookingDTO{
		ID:          string(b.ID),
		ProjectID:   string(b.ProjectID),
		EmployeeID:  string(b.EmployeeID),
		StartDate:   b.Range.Start.String(),
		EndDate:     b.Range.End.String(),
		BookedHours: hours(b.BookedHours),
		Role:        b.Role,
		Status:      string(b.Status),
	}
}

type CreateBookingRequest struct {
	EmployeeID  string  `json:"employee_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	BookedHours float64 `json:"booked_hours"`
	Role        string  `json:"role,omitempty"`
}

type ReservationDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	HoursPerDay float64 `json:"hours_per_day"`
	Reason      string  `json:"reason,omitempty"`
	Status      string  `json:"status"`
}

func toReservationDTO(r engine.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:          string(r.ID),
		EmployeeID:  string(r.EmployeeID),
		StartDate:   r.Range.Start.String(),
		EndDate:     r.Range.End.String(),
		HoursPerDay: hours(r.HoursPerDay),
		Reason:      r.Reason,
		Status:      string(r.Status),
	}
}

type CreateReservationRequest struct {
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	HoursPerDay float64 `json:"hours_per_day"`
	Reason      string  `json:"reason,omitempty"`
}

// =============================================================================
// AVAILABILITY
// =============================================================================

type AvailabilityDTO struct {
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	WorkingDays        int     `json:"working_days"`
	MaxCapacity        float64 `json:"max_capacity"`
	TotalBookedHours   float64 `json:"total_booked_hours"`
	TotalReservedHours float64 `json:"total_reserved_hours"`
	TotalUtilizedHours float64 `json:"total_utilized_hours"`
	AvailableHours     float64 `json:"available_hours"`
}

func toAvailabilityDTO(a engine.Availability) AvailabilityDTO {
	return AvailabilityDTO{
		StartDate:          a.Window.Start.String(),
		EndDate:            a.Window.End.String(),
		WorkingDays:        a.WorkingDays,
		MaxCapacity:        hours(a.MaxCapacity),
		TotalBookedHours:   hours(a.UtilizedBookingHours),
		TotalReservedHours: hours(a.UtilizedReservationHours),
		TotalUtilizedHours: hours(a.TotalUtilized),
		AvailableHours:     hours(a.AvailableHours),
	}
}

type MonthAvailabilityDTO struct {
	Month int `json:"month"`
	AvailabilityDTO
}

// =============================================================================
// SETTINGS
// =============================================================================

type RuleSetDTO struct {
	HoursPerWorkingDay  float64 `json:"work_hours_per_day"`
	WorkingDaysPerMonth float64 `json:"work_days_per_month"`
	Weekend             []int   `json:"weekend_days"`
}

func toRuleSetDTO(r engine.RuleSet) RuleSetDTO {
	weekend := make([]int, len(r.Weekend))
	for i, d := range r.Weekend {
		weekend[i] = int(d)
	}
	return RuleSetDTO{
		HoursPerWorkingDay:  hours(r.HoursPerWorkingDay),
		WorkingDaysPerMonth: hours(r.WorkingDaysPerMonth),
		Weekend:             weekend,
	}
}

type UpdateRulesRequest struct {
	HoursPerWorkingDay  *float64 `json:"work_hours_per_day,omitempty"`
	WorkingDaysPerMonth *float64 `json:"work_days_per_month,omitempty"`
	Weekend             []int    `json:"weekend_days,omitempty"`
}

// =============================================================================
// DASHBOARDS
// =============================================================================

type MonthlySummaryDTO struct {
	Month           int     `json:"month"`
	TotalAvailable  float64 `json:"total_available"`
	TotalBooked     float64 `json:"total_booked"`
	TotalCapacity   float64 `json:"total_capacity"`
	EmployeeCount   int     `json:"employee_count"`
	UtilizationRate float64 `json:"utilization_rate"`
}

type DepartmentDTO struct {
	Name                string  `json:"name"`
	EmployeeCount       int     `json:"count"`
	TotalAvailableHours float64 `json:"total_available_hours"`
}

type ResourceDashboardDTO struct {
	Year                int                 `json:"year"`
	TotalEmployees      int                 `json:"total_employees"`
	Managers            int                 `json:"managers"`
	TotalAvailableHours float64             `json:"total_available_hours"`
	MonthlySummary      []MonthlySummaryDTO `json:"monthly_summary"`
	Departments         []DepartmentDTO     `json:"departments"`
}

type BookingStatsDTO struct {
	TotalBookings   int     `json:"total_bookings"`
	TotalHours      float64 `json:"total_hours"`
	UniqueEmployees int     `json:"unique_employees"`
}

type ProjectSummaryDTO struct {
	ProjectDTO
	BookingStats BookingStatsDTO `json:"booking_stats"`
}

type ProjectDashboardDTO struct {
	TotalProjects   int                 `json:"total_projects"`
	StatusCounts    map[string]int      `json:"status_counts"`
	AverageProgress float64             `json:"average_progress"`
	TotalBookings   int                 `json:"total_bookings"`
	Projects        []ProjectSummaryDTO `json:"projects"`
}

// =============================================================================
// AUTH / MISC
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type AuditEntryDTO struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	ActorID    string `json:"actor_id,omitempty"`
	Action     string `json:"action"`
	EmployeeID string `json:"employee_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
