package sla

import "errors"

// ErrMissingConfiguration marks an absent or malformed definition supplied
// to an evaluator.
var ErrMissingConfiguration = errors.New("missing configuration")

// Period is the SLA evaluation period.
type Period string

const (
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

// Days returns the period length in days (0 for an unknown period).
func (p Period) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	case PeriodQuarterly:
		return 90
	default:
		return 0
	}
}

// SLA represents a parsed SLA definition.
type SLA struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       Spec     `yaml:"spec" json:"spec"`
}

// Metadata identifies a definition and the project it belongs to.
type Metadata struct {
	ID          string `yaml:"id" json:"id"`
	Project     string `yaml:"project" json:"project"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Spec contains the SLA targets and downtime thresholds.
type Spec struct {
	UptimeTargetPercent    float64            `yaml:"uptimeTargetPercent" json:"uptimeTargetPercent"`
	ResponseTime           ResponseTimeTarget `yaml:"responseTime,omitempty" json:"responseTime,omitempty"`
	ErrorRateTargetPercent float64            `yaml:"errorRateTargetPercent,omitempty" json:"errorRateTargetPercent,omitempty"`
	EvaluationPeriod       Period             `yaml:"evaluationPeriod" json:"evaluationPeriod"`
	Downtime               DowntimeThresholds `yaml:"downtime" json:"downtime"`
	EvaluationInterval     string             `yaml:"evaluationInterval" json:"evaluationInterval"`
}

// ResponseTimeTarget is the optional latency objective. A TargetMs <= 0
// means no latency objective is configured.
type ResponseTimeTarget struct {
	TargetMs   int    `yaml:"targetMs,omitempty" json:"targetMs,omitempty"`
	Percentile string `yaml:"percentile,omitempty" json:"percentile,omitempty"` // p50 | p95 | p99
}

// DowntimeThresholds define when an interval counts as down.
type DowntimeThresholds struct {
	ErrorRatePercent float64 `yaml:"errorRatePercent" json:"errorRatePercent"`
	NoTrafficMinutes int     `yaml:"noTrafficMinutes" json:"noTrafficMinutes"`
}

// Alert represents a parsed threshold-alert definition.
type Alert struct {
	APIVersion string    `yaml:"apiVersion" json:"apiVersion"`
	Kind       string    `yaml:"kind" json:"kind"`
	Metadata   Metadata  `yaml:"metadata" json:"metadata"`
	Spec       AlertSpec `yaml:"spec" json:"spec"`
}

// AlertSpec contains the alert tuning parameters the health scorer reads.
type AlertSpec struct {
	Enabled                 bool `yaml:"enabled" json:"enabled"`
	EvaluationWindowMinutes int  `yaml:"evaluationWindowMinutes" json:"evaluationWindowMinutes"`
	CooldownMinutes         int  `yaml:"cooldownMinutes" json:"cooldownMinutes"`
	NotifyOnTrigger         bool `yaml:"notifyOnTrigger" json:"notifyOnTrigger"`
	NotifyOnResolve         bool `yaml:"notifyOnResolve" json:"notifyOnResolve"`
}

// SLAWithFile pairs an SLA with its source file path.
type SLAWithFile struct {
	SLA  *SLA
	File string
}

// AlertWithFile pairs an Alert with its source file path.
type AlertWithFile struct {
	Alert *Alert
	File  string
}

// ValidationError represents a validation error for a specific file.
type ValidationError struct {
	File    string
	Path    string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.File + ": " + e.Path + ": " + e.Message
	}
	return e.File + ": " + e.Message
}
