// Package incident clusters contiguous down intervals into discrete
// incidents with root-cause classification.
package incident

import (
	"fmt"
	"sort"
	"time"

	"github.com/rahulrathod315/apipulse/internal/metrics"
)

// DefaultLatencyThresholdMs is the fallback latency bound used for
// high_response_time classification when the caller supplies none.
const DefaultLatencyThresholdMs = 1000

// Config parameterizes detection for one window.
type Config struct {
	// Down is the per-interval down predicate, normally
	// compliance.DownPredicate for the owning SLA.
	Down func(metrics.Interval) bool

	// ErrorRateThreshold is the downtime error-rate threshold used for
	// root-cause classification, in percent.
	ErrorRateThreshold float64

	// LatencyThresholdMs bounds acceptable latency for root-cause
	// classification. Zero selects DefaultLatencyThresholdMs.
	LatencyThresholdMs float64
}

// Detect scans the window in time order and returns the incidents it
// contains. Re-running on the same input yields the same incidents, with
// deterministic IDs derived from each incident's start time.
func Detect(w *metrics.Window, cfg Config) ([]Incident, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil window", metrics.ErrInvalidWindow)
	}
	if cfg.Down == nil {
		return nil, fmt.Errorf("down predicate is required")
	}
	if cfg.LatencyThresholdMs <= 0 {
		cfg.LatencyThresholdMs = DefaultLatencyThresholdMs
	}

	var incidents []Incident
	var open []metrics.Interval

	for _, iv := range w.Intervals {
		if cfg.Down(iv) {
			open = append(open, iv)
			continue
		}
		if len(open) > 0 {
			// First up interval closes the incident at its own start.
			// A single up interval is always a gap; no smoothing.
			endedAt := iv.Timestamp
			incidents = append(incidents, buildIncident(open, w.Width, &endedAt, cfg))
			open = nil
		}
	}

	if len(open) > 0 {
		incidents = append(incidents, buildIncident(open, w.Width, nil, cfg))
	}

	return incidents, nil
}

// buildIncident aggregates one contiguous run of down intervals.
func buildIncident(run []metrics.Interval, width time.Duration, endedAt *time.Time, cfg Config) Incident {
	inc := Incident{
		ID:              fmt.Sprintf("inc-%d", run[0].Timestamp.Unix()),
		StartedAt:       run[0].Timestamp,
		EndedAt:         endedAt,
		DurationSeconds: int64(len(run)) * int64(width.Seconds()),
		ErrorCodes:      map[int]uint64{},
		Resolved:        endedAt != nil,
	}

	endpoints := map[string]struct{}{}
	var requests, errors uint64
	var weightedLatency float64
	allNoTraffic := true

	for _, iv := range run {
		requests += iv.RequestCount
		errors += iv.ErrorCount
		weightedLatency += iv.AvgResponseTimeMs * float64(iv.RequestCount)
		if iv.RequestCount > 0 {
			allNoTraffic = false
		}
		for code, count := range iv.StatusCodes {
			inc.ErrorCodes[code] += count
		}
		for _, ep := range iv.Endpoints {
			endpoints[ep] = struct{}{}
		}
	}

	for ep := range endpoints {
		inc.AffectedEndpoints = append(inc.AffectedEndpoints, ep)
	}
	sort.Strings(inc.AffectedEndpoints)

	if requests > 0 {
		inc.AvgErrorRate = float64(errors) / float64(requests) * 100
		inc.AvgResponseTime = weightedLatency / float64(requests)
	}

	// First match wins.
	switch {
	case allNoTraffic:
		inc.RootCause = RootCauseNoTraffic
	case inc.AvgErrorRate >= cfg.ErrorRateThreshold:
		inc.RootCause = RootCauseHighErrorRate
	case inc.AvgResponseTime > cfg.LatencyThresholdMs:
		inc.RootCause = RootCauseHighResponseTime
	default:
		inc.RootCause = RootCauseUnknown
	}

	return inc
}
