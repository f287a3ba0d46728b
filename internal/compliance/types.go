package compliance

// ResponseTimeCompliance reports the latency objective check.
type ResponseTimeCompliance struct {
	TargetMs   int     `json:"targetMs"`
	Percentile string  `json:"percentile,omitempty"`
	CurrentMs  float64 `json:"currentMs"`
	Compliant  bool    `json:"compliant"`
}

// ErrorRateCompliance reports the error-rate objective check.
type ErrorRateCompliance struct {
	TargetPercent  float64 `json:"targetPercent"`
	CurrentPercent float64 `json:"currentPercent"`
	Compliant      bool    `json:"compliant"`
}

// Result is the complete SLA compliance verdict for one window. It is
// recomputed on every call and never persisted by the evaluator itself.
type Result struct {
	MeetingSLA    bool    `json:"meetingSLA"`
	MeetingUptime bool    `json:"meetingUptime"`
	AtRisk        bool    `json:"atRisk"`
	UptimePercent float64 `json:"uptimePercent"`
	UptimeTarget  float64 `json:"uptimeTarget"`
	TotalHours    float64 `json:"totalHours"`
	UpHours       float64 `json:"upHours"`
	DownHours     float64 `json:"downHours"`

	ResponseTime ResponseTimeCompliance `json:"responseTime"`
	ErrorRate    ErrorRateCompliance    `json:"errorRate"`
}
