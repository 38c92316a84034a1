/*
rules.go - Business rules: working hours, working days, weekends

PURPOSE:
  Resolves the effective {hours-per-working-day, working-days-per-month,
  weekend} triple for an employee. A single global rule set applies to
  everyone; a per-employee override may replace any subset of its fields,
  falling back to the global value field by field.

WHY NOT CONSTANTS:
  Earlier generations of this system hardcoded 6 hours/day, 20 days/month
  and a fixed weekend. All three turned out to be deployment-specific.
  Rules now live in an injected RuleStore; nothing reads a process global.

NO CACHING:
  Effective() hits the store on every call. A cleared override must be
  visible to the very next call, so there is no cache to invalidate.

SEE ALSO:
  - store.go: RuleStore is part of the persistence surface
  - availability.go: Consumes the effective rule set
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE SET - Effective configuration, fully determined
// =============================================================================

// RuleSet is an effective business rule configuration. Every field is set;
// merging an override over the global set never leaves a field undefined.
type RuleSet struct {
	// HoursPerWorkingDay is the nominal bookable hours per working day.
	HoursPerWorkingDay decimal.Decimal

	// WorkingDaysPerMonth is an average and need not be an integer.
	WorkingDaysPerMonth decimal.Decimal

	// Weekend is the set of weekdays excluded from work.
	Weekend Weekend
}

// DefaultRules returns the shipped global rule set: 6 hours per working day,
// 20 working days per month, Friday+Saturday weekend.
func DefaultRules() RuleSet {
	return RuleSet{
		HoursPerWorkingDay:  decimal.NewFromInt(6),
		WorkingDaysPerMonth: decimal.NewFromInt(20),
		Weekend:             WeekendFriSat,
	}
}

// MonthlyCapacity returns hours_per_working_day × working_days_per_month.
// Pure arithmetic, no rounding; callers round only at presentation
// boundaries.
func (r RuleSet) MonthlyCapacity() decimal.Decimal {
	return r.HoursPerWorkingDay.Mul(r.WorkingDaysPerMonth)
}

// =============================================================================
// RULE OVERRIDE - Per-employee partial replacement
// =============================================================================

// RuleOverride replaces a subset of RuleSet fields for one employee.
// Nil fields inherit the global value.
type RuleOverride struct {
	HoursPerWorkingDay  *decimal.Decimal
	WorkingDaysPerMonth *decimal.Decimal
	Weekend             Weekend // nil = inherit
}

// ApplyTo merges the override over a base rule set, field by field.
func (o RuleOverride) ApplyTo(base RuleSet) RuleSet {
	out := base
	if o.HoursPerWorkingDay != nil {
		out.HoursPerWorkingDay = *o.HoursPerWorkingDay
	}
	if o.WorkingDaysPerMonth != nil {
		out.WorkingDaysPerMonth = *o.WorkingDaysPerMonth
	}
	if o.Weekend != nil {
		out.Weekend = o.Weekend
	}
	return out
}

// IsEmpty reports whether the override changes nothing.
func (o RuleOverride) IsEmpty() bool {
	return o.HoursPerWorkingDay == nil && o.WorkingDaysPerMonth == nil && o.Weekend == nil
}

// =============================================================================
// RULES SERVICE - Two-level lookup over an injected store
// =============================================================================

// Rules resolves effective rule sets from a RuleStore. It holds no state
// of its own and is safe for concurrent use.
type Rules struct {
	Store RuleStore
}

func NewRules(store RuleStore) *Rules {
	return &Rules{Store: store}
}

// Effective returns the employee's rule set: the stored override merged
// over the global set, or the global set unchanged when no override exists.
func (r *Rules) Effective(ctx context.Context, employeeID EmployeeID) (RuleSet, error) {
	global, err := r.Store.GlobalRules(ctx)
	if err != nil {
		return RuleSet{}, err
	}
	override, err := r.Store.Override(ctx, employeeID)
	if err != nil {
		return RuleSet{}, err
	}
	if override == nil {
		return global, nil
	}
	return override.ApplyTo(global), nil
}

// UpdateGlobal replaces the global rule set.
func (r *Rules) UpdateGlobal(ctx context.Context, rules RuleSet) error {
	return r.Store.SetGlobalRules(ctx, rules)
}

// SetOverride upserts a per-employee override. An empty override is
// equivalent to clearing it.
func (r *Rules) SetOverride(ctx context.Context, employeeID EmployeeID, override RuleOverride) error {
	if override.IsEmpty() {
		return r.Store.ClearOverride(ctx, employeeID)
	}
	return r.Store.SetOverride(ctx, employeeID, override)
}

// ClearOverride removes a per-employee override. Subsequent Effective()
// calls reflect the global set immediately.
func (r *Rules) ClearOverride(ctx context.Context, employeeID EmployeeID) error {
	return r.Store.ClearOverride(ctx, employeeID)
}
