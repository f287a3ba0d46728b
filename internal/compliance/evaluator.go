package compliance

import (
	"fmt"

	"github.com/rahulrathod315/apipulse/internal/metrics"
	"github.com/rahulrathod315/apipulse/internal/sla"
)

// DefaultAtRiskMarginPoints is how close (in uptime points) a passing SLA
// may sit to its target before it is flagged at risk.
const DefaultAtRiskMarginPoints = 0.1

// Options tune policy constants that are not part of the SLA definition.
type Options struct {
	AtRiskMarginPoints float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{AtRiskMarginPoints: DefaultAtRiskMarginPoints}
}

// DownPredicate builds the per-interval down check for a window and a set of
// downtime thresholds. An interval is down when it carries zero traffic for
// at least the configured number of minutes, or its error rate reaches the
// downtime error-rate threshold.
func DownPredicate(widthMinutes float64, th sla.DowntimeThresholds) func(metrics.Interval) bool {
	return func(iv metrics.Interval) bool {
		if iv.RequestCount == 0 {
			return widthMinutes >= float64(th.NoTrafficMinutes)
		}
		return iv.ErrorRatePercent() >= th.ErrorRatePercent
	}
}

// Evaluate computes the compliance verdict for one SLA over one window.
// Pure function of its inputs; a malformed window is the caller's error to
// fix, not this evaluator's to correct.
func Evaluate(def *sla.SLA, w *metrics.Window, opts Options) (*Result, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil SLA definition", sla.ErrMissingConfiguration)
	}
	if w == nil {
		return nil, fmt.Errorf("%w: nil window", metrics.ErrInvalidWindow)
	}

	result := &Result{
		UptimeTarget: def.Spec.UptimeTargetPercent,
		TotalHours:   w.TotalHours(),
	}

	down := DownPredicate(w.WidthMinutes(), def.Spec.Downtime)
	intervalHours := w.Width.Hours()
	for _, iv := range w.Intervals {
		if down(iv) {
			result.DownHours += intervalHours
		} else {
			result.UpHours += intervalHours
		}
	}

	// An empty window reads as "no data yet", not as an outage.
	if result.TotalHours == 0 {
		result.UptimePercent = 100
	} else {
		result.UptimePercent = result.UpHours / result.TotalHours * 100
	}
	result.MeetingUptime = result.UptimePercent >= def.Spec.UptimeTargetPercent

	margin := opts.AtRiskMarginPoints
	result.AtRisk = result.MeetingUptime && result.UptimePercent-def.Spec.UptimeTargetPercent < margin

	result.ResponseTime = evaluateResponseTime(def.Spec.ResponseTime, w)
	result.ErrorRate = evaluateErrorRate(def.Spec.ErrorRateTargetPercent, w)

	result.MeetingSLA = result.MeetingUptime &&
		result.ResponseTime.Compliant &&
		result.ErrorRate.Compliant

	return result, nil
}

// evaluateResponseTime aggregates the configured percentile over the window
// and compares it to the target. No target configured means compliant.
func evaluateResponseTime(target sla.ResponseTimeTarget, w *metrics.Window) ResponseTimeCompliance {
	rt := ResponseTimeCompliance{
		TargetMs:   target.TargetMs,
		Percentile: target.Percentile,
		CurrentMs:  aggregateResponseTime(w.Intervals, target.Percentile),
	}
	if target.TargetMs <= 0 {
		rt.Compliant = true
		return rt
	}
	rt.Compliant = rt.CurrentMs <= float64(target.TargetMs)
	return rt
}

// aggregateResponseTime is the request-weighted mean of the per-interval
// series matching the percentile. Intervals carry avg and p95 series; p50
// reads the avg series, p95 and p99 read the p95 series.
func aggregateResponseTime(intervals []metrics.Interval, percentile string) float64 {
	var weighted float64
	var requests uint64
	for _, iv := range intervals {
		value := iv.P95ResponseTimeMs
		if percentile == "p50" {
			value = iv.AvgResponseTimeMs
		}
		weighted += value * float64(iv.RequestCount)
		requests += iv.RequestCount
	}
	if requests == 0 {
		return 0
	}
	return weighted / float64(requests)
}

// evaluateErrorRate aggregates errors/requests over the whole window and
// compares it to the target. No target configured means compliant.
func evaluateErrorRate(targetPercent float64, w *metrics.Window) ErrorRateCompliance {
	er := ErrorRateCompliance{TargetPercent: targetPercent}

	var requests, errors uint64
	for _, iv := range w.Intervals {
		requests += iv.RequestCount
		errors += iv.ErrorCount
	}
	if requests > 0 {
		er.CurrentPercent = float64(errors) / float64(requests) * 100
	}

	if targetPercent <= 0 {
		er.Compliant = true
		return er
	}
	er.Compliant = er.CurrentPercent <= targetPercent
	return er
}
