package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
)

// =============================================================================
// DEFAULTS AND MERGING
// =============================================================================

func TestDefaultRules(t *testing.T) {
	rules := engine.DefaultRules()
	decEqual(t, 6, rules.HoursPerWorkingDay, "hours per working day")
	decEqual(t, 20, rules.WorkingDaysPerMonth, "working days per month")
	if !rules.Weekend.Equal(engine.WeekendFriSat) {
		t.Errorf("expected Fri/Sat weekend, got %v", rules.Weekend)
	}
	decEqual(t, 120, rules.MonthlyCapacity(), "monthly capacity")
}

func TestRuleOverride_MergesFieldByField(t *testing.T) {
	// GIVEN: An override that only replaces hours per day
	// THEN: The other fields come from the base unchanged

	base := engine.DefaultRules()
	eight := decimal.NewFromInt(8)
	override := engine.RuleOverride{HoursPerWorkingDay: &eight}

	merged := override.ApplyTo(base)
	decEqual(t, 8, merged.HoursPerWorkingDay, "overridden hours")
	decEqual(t, 20, merged.WorkingDaysPerMonth, "inherited days")
	if !merged.Weekend.Equal(base.Weekend) {
		t.Error("weekend should be inherited")
	}

	// And the weekend alone.
	override = engine.RuleOverride{Weekend: engine.WeekendSatSun}
	merged = override.ApplyTo(base)
	decEqual(t, 6, merged.HoursPerWorkingDay, "inherited hours")
	if !merged.Weekend.Equal(engine.WeekendSatSun) {
		t.Error("weekend should be overridden")
	}
}

func TestRuleOverride_IsEmpty(t *testing.T) {
	if !(engine.RuleOverride{}).IsEmpty() {
		t.Error("zero override should be empty")
	}
	six := decimal.NewFromInt(6)
	if (engine.RuleOverride{HoursPerWorkingDay: &six}).IsEmpty() {
		t.Error("override with a field should not be empty")
	}
}

// =============================================================================
// RULES SERVICE
// =============================================================================

func TestRules_EffectiveWithoutOverride(t *testing.T) {
	ctx := context.Background()
	rules := engine.NewRules(store.NewMemory())

	effective, err := rules.Effective(ctx, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, 6, effective.HoursPerWorkingDay, "global default")
}

func TestRules_OverrideLifecycle(t *testing.T) {
	// GIVEN: A per-employee override
	// WHEN: Setting, then clearing it
	// THEN: Effective rules flip immediately each time; no caching

	ctx := context.Background()
	rules := engine.NewRules(store.NewMemory())

	eight := decimal.NewFromInt(8)
	if err := rules.SetOverride(ctx, "emp-1", engine.RuleOverride{HoursPerWorkingDay: &eight}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	effective, err := rules.Effective(ctx, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, 8, effective.HoursPerWorkingDay, "after override")

	// Another employee is untouched.
	other, err := rules.Effective(ctx, "emp-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, 6, other.HoursPerWorkingDay, "other employee")

	if err := rules.ClearOverride(ctx, "emp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	effective, err = rules.Effective(ctx, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, 6, effective.HoursPerWorkingDay, "after clear")
}

func TestRules_EmptyOverrideClears(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rules := engine.NewRules(mem)

	eight := decimal.NewFromInt(8)
	if err := rules.SetOverride(ctx, "emp-1", engine.RuleOverride{HoursPerWorkingDay: &eight}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rules.SetOverride(ctx, "emp-1", engine.RuleOverride{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := mem.Override(ctx, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != nil {
		t.Error("empty override should clear the stored one")
	}
}

func TestRules_GlobalUpdateVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	rules := engine.NewRules(store.NewMemory())

	updated := engine.RuleSet{
		HoursPerWorkingDay:  decimal.NewFromInt(7),
		WorkingDaysPerMonth: decimal.NewFromInt(22),
		Weekend:             engine.Weekend{time.Sunday},
	}
	if err := rules.UpdateGlobal(ctx, updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	effective, err := rules.Effective(ctx, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, 7, effective.HoursPerWorkingDay, "updated hours")
	if !effective.Weekend.Equal(engine.Weekend{time.Sunday}) {
		t.Errorf("expected Sunday-only weekend, got %v", effective.Weekend)
	}
}
