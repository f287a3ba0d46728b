package incident

import "time"

// RootCause classifies the dominant reason an incident occurred.
type RootCause string

const (
	RootCauseNoTraffic        RootCause = "no_traffic"
	RootCauseHighErrorRate    RootCause = "high_error_rate"
	RootCauseHighResponseTime RootCause = "high_response_time"
	RootCauseUnknown          RootCause = "unknown"
)

// Incident is a maximal contiguous run of down intervals.
type Incident struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	// EndedAt is nil while the most recent interval in the window is
	// still down.
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds int64      `json:"durationSeconds"`
	RootCause       RootCause  `json:"rootCause"`

	AffectedEndpoints []string       `json:"affectedEndpoints"`
	ErrorCodes        map[int]uint64 `json:"errorCodes"`
	AvgErrorRate      float64        `json:"avgErrorRate"`
	AvgResponseTime   float64        `json:"avgResponseTime"`
	Resolved          bool           `json:"resolved"`
}
