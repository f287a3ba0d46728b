package storage

import (
	"time"

	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/sla"
)

// EvaluationStore defines the interface for persisting evaluation
// snapshots, incidents and alert trigger history.
type EvaluationStore interface {
	// StoreSLADefinition persists an SLA definition
	StoreSLADefinition(def *sla.SLA) error

	// StoreAlertDefinition persists an alert definition
	StoreAlertDefinition(def *sla.Alert) error

	// StoreEvaluation persists one compliance+budget snapshot
	StoreEvaluation(rec *EvaluationRecord) error

	// QueryEvaluations retrieves snapshots with optional filtering
	QueryEvaluations(filter EvaluationFilter) ([]EvaluationRecord, error)

	// LatestEvaluation retrieves the most recent snapshot for an SLA,
	// or nil when none exists
	LatestEvaluation(slaID string) (*EvaluationRecord, error)

	// StoreIncidents upserts the incidents detected for an SLA
	StoreIncidents(slaID string, incidents []incident.Incident) error

	// ListIncidents retrieves recorded incidents, newest first
	ListIncidents(slaID string, limit int) ([]SLAIncident, error)

	// RecordAlertEvent appends a trigger or resolve event to the alert
	// history
	RecordAlertEvent(alertID, eventType string, occurredAt time.Time) error

	// CountAlertTriggers counts trigger events since the given time
	CountAlertTriggers(alertID string, since time.Time) (int, error)

	// LastAlertEvent returns the most recent event for an alert; a nil
	// timestamp means no history
	LastAlertEvent(alertID string) (eventType string, occurredAt *time.Time, err error)

	// Close closes the storage connection
	Close() error
}

// Alert event types recorded in history.
const (
	AlertEventTrigger = "trigger"
	AlertEventResolve = "resolve"
)

// EvaluationFilter defines filtering options for snapshot queries
type EvaluationFilter struct {
	SLAID      string
	Project    string
	MeetingSLA *bool
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

// EvaluationRecord is one persisted compliance+budget snapshot.
type EvaluationRecord struct {
	ID      int64
	SLAID   string
	Project string

	MeetingSLA      bool
	AtRisk          bool
	Accelerating    bool
	UptimePercent   float64
	DownHours       float64
	ConsumedPercent float64

	Compliance *compliance.Result
	Budget     *budget.Budget

	Timestamp time.Time
	CreatedAt time.Time
}

// SLAIncident is a recorded incident together with the SLA it belongs to.
type SLAIncident struct {
	SLAID string `json:"slaID"`
	incident.Incident
}
