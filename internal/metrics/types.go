package metrics

import "time"

// Granularity is the width class of one metric interval.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Duration returns the interval width implied by the granularity.
// Month buckets are fixed 30-day buckets.
func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityHour:
		return time.Hour
	case GranularityDay:
		return 24 * time.Hour
	case GranularityWeek:
		return 7 * 24 * time.Hour
	case GranularityMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// SelectGranularity picks the interval granularity for a window by its
// length: <=48h hour, <=90d day, <=180d week, else month.
func SelectGranularity(start, end time.Time) Granularity {
	length := end.Sub(start)
	switch {
	case length <= 48*time.Hour:
		return GranularityHour
	case length <= 90*24*time.Hour:
		return GranularityDay
	case length <= 180*24*time.Hour:
		return GranularityWeek
	default:
		return GranularityMonth
	}
}

// Interval is one time bucket of request observations. A bucket with no
// traffic is present with RequestCount == 0, never omitted, so "no traffic"
// stays distinguishable from "no data".
type Interval struct {
	Timestamp         time.Time `json:"timestamp"`
	RequestCount      uint64    `json:"request_count"`
	ErrorCount        uint64    `json:"error_count"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms"`
	P95ResponseTimeMs float64   `json:"p95_response_time_ms"`

	// Optional per-bucket breakdowns. Empty when the source does not
	// report them.
	StatusCodes map[int]uint64 `json:"status_codes,omitempty"`
	Endpoints   []string       `json:"endpoints,omitempty"`
}

// ErrorRatePercent returns the interval error rate as a percentage.
// Zero traffic yields 0, never NaN.
func (iv Interval) ErrorRatePercent() float64 {
	if iv.RequestCount == 0 {
		return 0
	}
	return float64(iv.ErrorCount) / float64(iv.RequestCount) * 100
}
