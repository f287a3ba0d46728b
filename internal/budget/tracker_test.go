package budget

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/sla"
)

var periodStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestTrack_MonthlyBreach(t *testing.T) {
	// 99.9% over 720h allows 0.72h of downtime. One full down hour puts
	// consumption over 100%, reported unclamped.
	cr := &compliance.Result{TotalHours: 720, UpHours: 719, DownHours: 1}
	now := periodStart.Add(30 * 24 * time.Hour)

	b, err := Track(99.9, sla.PeriodMonthly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(b.TotalAllowedHours-0.72) > 1e-9 {
		t.Errorf("expected 0.72 allowed hours, got %f", b.TotalAllowedHours)
	}
	if b.UsedHours != 1 {
		t.Errorf("expected 1 used hour, got %f", b.UsedHours)
	}
	if b.RemainingHours != 0 {
		t.Errorf("expected 0 remaining hours, got %f", b.RemainingHours)
	}
	if math.Abs(b.ConsumedPercent-138.888888) > 0.001 {
		t.Errorf("expected ~138.9%% consumed, got %f", b.ConsumedPercent)
	}
	if b.HasProjection {
		t.Error("expected no exhaustion projection once the budget is spent")
	}
}

func TestTrack_HealthyBudget(t *testing.T) {
	// Half the monthly budget used halfway through the period: burn is
	// exactly linear, no acceleration.
	cr := &compliance.Result{TotalHours: 360, UpHours: 359.82, DownHours: 0.18}
	now := periodStart.Add(15 * 24 * time.Hour)

	b, err := Track(99.9, sla.PeriodMonthly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(b.ConsumedPercent-50) > 0.001 {
		t.Errorf("expected 50%% consumed, got %f", b.ConsumedPercent)
	}
	if b.DaysElapsed != 15 {
		t.Errorf("expected 15 days elapsed, got %f", b.DaysElapsed)
	}
	if b.Accelerating {
		t.Error("expected no acceleration flag for linear consumption")
	}
	if !b.HasProjection {
		t.Fatal("expected an exhaustion projection")
	}
	// 50 points remaining at 50/15 points per day -> 15 more days.
	if b.ProjectedExhaustionDays != 15 {
		t.Errorf("expected 15 days to exhaustion, got %d", b.ProjectedExhaustionDays)
	}
}

func TestTrack_Accelerating(t *testing.T) {
	// 3 days into the month the linear baseline is 10%; consuming 25%
	// exceeds baseline*1.2=12%.
	cr := &compliance.Result{TotalHours: 72, UpHours: 71.982, DownHours: 0.018}
	now := periodStart.Add(3 * 24 * time.Hour)

	b, err := Track(99.9, sla.PeriodMonthly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(b.ConsumedPercent-25) > 0.001 {
		t.Fatalf("expected 25%% consumed, got %f", b.ConsumedPercent)
	}
	if !b.Accelerating {
		t.Error("expected accelerating flag at 25%% vs 10%% linear baseline")
	}
	if !b.HasProjection {
		t.Fatal("expected an exhaustion projection")
	}
	// 75 points remaining at 25/3 points per day -> ceil(9) days.
	if b.ProjectedExhaustionDays != 9 {
		t.Errorf("expected 9 days to exhaustion, got %d", b.ProjectedExhaustionDays)
	}
}

func TestTrack_PerfectTargetConsumesZero(t *testing.T) {
	cr := &compliance.Result{TotalHours: 168, UpHours: 167, DownHours: 1}
	now := periodStart.Add(7 * 24 * time.Hour)

	b, err := Track(100, sla.PeriodWeekly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.TotalAllowedHours != 0 {
		t.Errorf("expected 0 allowed hours at a 100%% target, got %f", b.TotalAllowedHours)
	}
	if b.ConsumedPercent != 0 {
		t.Errorf("expected consumed 0 when allowance is zero, got %f", b.ConsumedPercent)
	}
	if b.HasProjection {
		t.Error("expected no projection with zero burn")
	}
}

func TestTrack_NoDowntimeNoProjection(t *testing.T) {
	cr := &compliance.Result{TotalHours: 240, UpHours: 240}
	now := periodStart.Add(10 * 24 * time.Hour)

	b, err := Track(99.9, sla.PeriodMonthly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.BurnRatePerDay != 0 {
		t.Errorf("expected zero burn rate, got %f", b.BurnRatePerDay)
	}
	if b.HasProjection {
		t.Error("expected no projection with zero burn rate")
	}
	if b.Accelerating {
		t.Error("expected no acceleration with zero consumption")
	}
}

func TestTrack_DaysElapsedClampedToPeriod(t *testing.T) {
	cr := &compliance.Result{TotalHours: 168, UpHours: 168}
	now := periodStart.Add(40 * 24 * time.Hour)

	b, err := Track(99.9, sla.PeriodWeekly, cr, periodStart, now, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.DaysElapsed != 7 {
		t.Errorf("expected days elapsed clamped to 7, got %f", b.DaysElapsed)
	}
}

func TestTrack_InvalidInputs(t *testing.T) {
	now := periodStart.Add(24 * time.Hour)

	if _, err := Track(99.9, sla.PeriodMonthly, nil, periodStart, now, DefaultOptions()); err == nil {
		t.Error("expected error for nil compliance result")
	}

	cr := &compliance.Result{TotalHours: 24, UpHours: 24}
	_, err := Track(99.9, sla.Period("fortnightly"), cr, periodStart, now, DefaultOptions())
	if !errors.Is(err, sla.ErrMissingConfiguration) {
		t.Errorf("expected ErrMissingConfiguration for unknown period, got %v", err)
	}
}
