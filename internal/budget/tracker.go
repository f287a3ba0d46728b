// Package budget derives error-budget consumption and burn-rate trend from
// a compliance result.
package budget

import (
	"fmt"
	"math"
	"time"

	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/sla"
)

// DefaultAccelerationFactor is how far consumption must outpace a uniform
// linear baseline before the budget is flagged accelerating.
const DefaultAccelerationFactor = 1.2

// burnRateEpsilon guards the exhaustion projection against a near-zero
// burn rate.
const burnRateEpsilon = 1e-9

// Options tune policy constants that are not part of the SLA definition.
type Options struct {
	AccelerationFactor float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{AccelerationFactor: DefaultAccelerationFactor}
}

// Budget is the derived error-budget state for one SLA period.
type Budget struct {
	TotalAllowedHours float64 `json:"totalAllowedHours"`
	UsedHours         float64 `json:"usedHours"`
	RemainingHours    float64 `json:"remainingHours"`
	// ConsumedPercent may exceed 100 during an active breach; it is
	// reported, never clamped.
	ConsumedPercent float64 `json:"consumedPercent"`

	DaysElapsed    float64 `json:"daysElapsed"`
	BurnRatePerDay float64 `json:"burnRatePerDay"`
	Accelerating   bool    `json:"accelerating"`

	// ProjectedExhaustionDays is meaningful only when HasProjection is
	// true; a near-zero burn rate or an already-exhausted budget yields
	// no projection rather than a degenerate number.
	HasProjection           bool `json:"hasProjection"`
	ProjectedExhaustionDays int  `json:"projectedExhaustionDays,omitempty"`
}

// Track computes the budget state from an SLA target and a compliance
// result. periodStart anchors the elapsed-days clock for the burn trend.
func Track(targetPercent float64, period sla.Period, cr *compliance.Result, periodStart, now time.Time, opts Options) (*Budget, error) {
	if cr == nil {
		return nil, fmt.Errorf("nil compliance result")
	}
	periodDays := period.Days()
	if periodDays == 0 {
		return nil, fmt.Errorf("%w: unknown evaluation period %q", sla.ErrMissingConfiguration, period)
	}

	b := &Budget{
		TotalAllowedHours: cr.TotalHours * (1 - targetPercent/100),
		UsedHours:         cr.DownHours,
	}
	b.RemainingHours = math.Max(0, b.TotalAllowedHours-b.UsedHours)

	// A 100% target allows zero downtime; consumption is defined as 0
	// rather than dividing by zero.
	if b.TotalAllowedHours > 0 {
		b.ConsumedPercent = b.UsedHours / b.TotalAllowedHours * 100
	}

	b.DaysElapsed = math.Min(float64(periodDays), now.Sub(periodStart).Hours()/24)
	if b.DaysElapsed > 0 {
		b.BurnRatePerDay = b.ConsumedPercent / b.DaysElapsed
	}

	if b.BurnRatePerDay > burnRateEpsilon && b.ConsumedPercent < 100 {
		b.HasProjection = true
		b.ProjectedExhaustionDays = int(math.Ceil((100 - b.ConsumedPercent) / b.BurnRatePerDay))
	}

	linearBaseline := b.DaysElapsed / float64(periodDays) * 100
	b.Accelerating = b.ConsumedPercent > linearBaseline*opts.AccelerationFactor

	return b, nil
}
