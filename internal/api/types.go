package api

import (
	"time"

	"github.com/rahulrathod315/apipulse/internal/alerthealth"
	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compare"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
)

// SLAListResponse represents a list of SLAs
type SLAListResponse struct {
	SLAs []SLASummary `json:"slas"`
}

// SLASummary contains summary information about an SLA
type SLASummary struct {
	ID               string  `json:"id"`
	Project          string  `json:"project"`
	UptimeTarget     float64 `json:"uptimeTarget"`
	EvaluationPeriod string  `json:"evaluationPeriod"`
}

// ComplianceResponse is one SLA's cached compliance state.
type ComplianceResponse struct {
	SLAID      string             `json:"slaID"`
	Compliance *compliance.Result `json:"compliance"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Stale      bool               `json:"stale"`
}

// BudgetResponse is one SLA's cached error-budget state.
type BudgetResponse struct {
	SLAID     string         `json:"slaID"`
	Budget    *budget.Budget `json:"budget"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Stale     bool           `json:"stale"`
}

// IncidentsResponse lists the incidents in one SLA's current window.
type IncidentsResponse struct {
	SLAID     string              `json:"slaID"`
	Incidents []incident.Incident `json:"incidents"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// EvaluateRequest forces a fresh evaluation of one SLA.
type EvaluateRequest struct {
	SLAID string `json:"slaID"`
}

// AlertListResponse represents a list of alerts
type AlertListResponse struct {
	Alerts []AlertSummary `json:"alerts"`
}

// AlertSummary contains summary information about an alert
type AlertSummary struct {
	ID      string `json:"id"`
	Project string `json:"project"`
	Enabled bool   `json:"enabled"`
}

// AlertHealthResponse is one alert's cached health score.
type AlertHealthResponse struct {
	AlertID         string            `json:"alertID"`
	Health          alerthealth.Score `json:"health"`
	TriggersPerWeek float64           `json:"triggersPerWeek"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// CompareRequest carries two already-aggregated metric windows.
type CompareRequest struct {
	Current    map[string]float64 `json:"current"`
	Previous   map[string]float64 `json:"previous"`
	InvertKeys []string           `json:"invertKeys,omitempty"`
}

// CompareResponse lists per-metric deltas.
type CompareResponse struct {
	Comparisons []compare.Comparison `json:"comparisons"`
}

// AuditRecordResponse is one persisted evaluation snapshot.
type AuditRecordResponse struct {
	ID              int64     `json:"id"`
	SLAID           string    `json:"slaID"`
	Project         string    `json:"project"`
	MeetingSLA      bool      `json:"meetingSLA"`
	AtRisk          bool      `json:"atRisk"`
	Accelerating    bool      `json:"accelerating"`
	UptimePercent   float64   `json:"uptimePercent"`
	DownHours       float64   `json:"downHours"`
	ConsumedPercent float64   `json:"consumedPercent"`
	Timestamp       time.Time `json:"timestamp"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AuditResponse represents an audit query result
type AuditResponse struct {
	Records []AuditRecordResponse `json:"records"`
	Total   int                   `json:"total"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Ready      bool     `json:"ready"`
	SLAsLoaded int      `json:"slasLoaded"`
	Reasons    []string `json:"reasons,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
