// Package compare computes direction-aware deltas between two
// equal-length metric windows that have already been aggregated to one
// scalar per metric.
package compare

import (
	"fmt"
	"sort"
)

// PercentDeltaCap bounds reported percent deltas. A previous value of zero
// with current traffic reports the cap instead of infinity.
const PercentDeltaCap = 999

// Direction classifies a delta relative to what "better" means for the
// metric.
type Direction string

const (
	DirectionImproved Direction = "improved"
	DirectionDegraded Direction = "degraded"
	DirectionNeutral  Direction = "neutral"
)

// Comparison is the delta report for one metric key.
type Comparison struct {
	MetricKey     string    `json:"metricKey"`
	CurrentValue  float64   `json:"currentValue"`
	PreviousValue float64   `json:"previousValue"`
	AbsoluteDelta float64   `json:"absoluteDelta"`
	PercentDelta  float64   `json:"percentDelta"`
	Improvement   bool      `json:"improvement"`
	Direction     Direction `json:"direction"`
}

// Compare reports per-key deltas between current and previous. The two maps
// must carry the same key set. Keys in invertKeys are "lower is better"
// (error rate, latency): a decrease counts as the improvement.
func Compare(current, previous map[string]float64, invertKeys map[string]bool) ([]Comparison, error) {
	if len(current) != len(previous) {
		return nil, fmt.Errorf("key sets differ: %d current vs %d previous metrics", len(current), len(previous))
	}

	keys := make([]string, 0, len(current))
	for key := range current {
		if _, ok := previous[key]; !ok {
			return nil, fmt.Errorf("metric %q missing from previous window", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]Comparison, 0, len(keys))
	for _, key := range keys {
		results = append(results, compareOne(key, current[key], previous[key], invertKeys[key]))
	}
	return results, nil
}

func compareOne(key string, current, previous float64, invert bool) Comparison {
	c := Comparison{
		MetricKey:     key,
		CurrentValue:  current,
		PreviousValue: previous,
		AbsoluteDelta: current - previous,
	}

	switch {
	case previous == 0 && current == 0:
		c.PercentDelta = 0
	case previous == 0:
		c.PercentDelta = PercentDeltaCap
		if current < 0 {
			c.PercentDelta = -PercentDeltaCap
		}
	default:
		c.PercentDelta = c.AbsoluteDelta / previous * 100
		if c.PercentDelta > PercentDeltaCap {
			c.PercentDelta = PercentDeltaCap
		}
		if c.PercentDelta < -PercentDeltaCap {
			c.PercentDelta = -PercentDeltaCap
		}
	}

	switch {
	case c.PercentDelta == 0:
		c.Direction = DirectionNeutral
	case invert && c.PercentDelta < 0, !invert && c.PercentDelta > 0:
		c.Direction = DirectionImproved
		c.Improvement = true
	default:
		c.Direction = DirectionDegraded
	}

	return c
}
