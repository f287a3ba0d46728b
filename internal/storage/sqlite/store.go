// Package sqlite implements storage.EvaluationStore on SQLite.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/sla"
	"github.com/rahulrathod315/apipulse/internal/storage"
)

// Store implements EvaluationStore using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store with the given database path
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// StoreSLADefinition persists an SLA definition
func (s *Store) StoreSLADefinition(def *sla.SLA) error {
	specJSON, err := json.Marshal(def.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal spec: %w", err)
	}

	query := `
		INSERT INTO sla_definitions (id, project, uptime_target, evaluation_period, spec_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project = excluded.project,
			uptime_target = excluded.uptime_target,
			evaluation_period = excluded.evaluation_period,
			spec_json = excluded.spec_json,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = s.db.Exec(query,
		def.Metadata.ID,
		def.Metadata.Project,
		def.Spec.UptimeTargetPercent,
		string(def.Spec.EvaluationPeriod),
		string(specJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store SLA definition: %w", err)
	}

	return nil
}

// StoreAlertDefinition persists an alert definition
func (s *Store) StoreAlertDefinition(def *sla.Alert) error {
	specJSON, err := json.Marshal(def.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal spec: %w", err)
	}

	query := `
		INSERT INTO alert_definitions (id, project, spec_json)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project = excluded.project,
			spec_json = excluded.spec_json,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = s.db.Exec(query, def.Metadata.ID, def.Metadata.Project, string(specJSON))
	if err != nil {
		return fmt.Errorf("failed to store alert definition: %w", err)
	}

	return nil
}

// StoreEvaluation persists one compliance+budget snapshot
func (s *Store) StoreEvaluation(rec *storage.EvaluationRecord) error {
	complianceJSON, err := json.Marshal(rec.Compliance)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance: %w", err)
	}

	budgetJSON, err := json.Marshal(rec.Budget)
	if err != nil {
		return fmt.Errorf("failed to marshal budget: %w", err)
	}

	query := `
		INSERT INTO evaluations (
			sla_id, project, meeting_sla, at_risk, accelerating,
			uptime_percent, down_hours, consumed_percent,
			compliance_json, budget_json, timestamp
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		rec.SLAID,
		rec.Project,
		rec.MeetingSLA,
		rec.AtRisk,
		rec.Accelerating,
		rec.UptimePercent,
		rec.DownHours,
		rec.ConsumedPercent,
		string(complianceJSON),
		string(budgetJSON),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to store evaluation: %w", err)
	}

	return nil
}

// QueryEvaluations retrieves snapshots with optional filtering
func (s *Store) QueryEvaluations(filter storage.EvaluationFilter) ([]storage.EvaluationRecord, error) {
	query := `
		SELECT id, sla_id, project, meeting_sla, at_risk, accelerating,
		       uptime_percent, down_hours, consumed_percent,
		       compliance_json, budget_json, timestamp, created_at
		FROM evaluations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.SLAID != "" {
		query += " AND sla_id = ?"
		args = append(args, filter.SLAID)
	}

	if filter.Project != "" {
		query += " AND project = ?"
		args = append(args, filter.Project)
	}

	if filter.MeetingSLA != nil {
		query += " AND meeting_sla = ?"
		args = append(args, *filter.MeetingSLA)
	}

	if filter.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartTime)
	}

	if filter.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100" // Default limit
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var records []storage.EvaluationRecord
	for rows.Next() {
		record, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// LatestEvaluation retrieves the most recent snapshot for an SLA
func (s *Store) LatestEvaluation(slaID string) (*storage.EvaluationRecord, error) {
	query := `
		SELECT id, sla_id, project, meeting_sla, at_risk, accelerating,
		       uptime_percent, down_hours, consumed_percent,
		       compliance_json, budget_json, timestamp, created_at
		FROM evaluations
		WHERE sla_id = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	row := s.db.QueryRow(query, slaID)
	record, err := scanEvaluation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// scanEvaluation maps one evaluations row into a record.
func scanEvaluation(scan func(dest ...interface{}) error) (*storage.EvaluationRecord, error) {
	var record storage.EvaluationRecord
	var complianceJSON, budgetJSON string

	err := scan(
		&record.ID,
		&record.SLAID,
		&record.Project,
		&record.MeetingSLA,
		&record.AtRisk,
		&record.Accelerating,
		&record.UptimePercent,
		&record.DownHours,
		&record.ConsumedPercent,
		&complianceJSON,
		&budgetJSON,
		&record.Timestamp,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	record.Compliance = &compliance.Result{}
	if err := json.Unmarshal([]byte(complianceJSON), record.Compliance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compliance: %w", err)
	}

	record.Budget = &budget.Budget{}
	if err := json.Unmarshal([]byte(budgetJSON), record.Budget); err != nil {
		return nil, fmt.Errorf("failed to unmarshal budget: %w", err)
	}

	return &record, nil
}

// StoreIncidents upserts the incidents detected for an SLA. Upserting by
// the deterministic incident ID keeps repeated detections idempotent and
// lets an open incident resolve in place.
func (s *Store) StoreIncidents(slaID string, incidents []incident.Incident) error {
	query := `
		INSERT INTO incidents (sla_id, id, started_at, ended_at, duration_seconds, root_cause, resolved, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sla_id, id) DO UPDATE SET
			ended_at = excluded.ended_at,
			duration_seconds = excluded.duration_seconds,
			root_cause = excluded.root_cause,
			resolved = excluded.resolved,
			detail_json = excluded.detail_json,
			updated_at = CURRENT_TIMESTAMP
	`

	for _, inc := range incidents {
		detailJSON, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("failed to marshal incident: %w", err)
		}

		var endedAt interface{}
		if inc.EndedAt != nil {
			endedAt = *inc.EndedAt
		}

		_, err = s.db.Exec(query,
			slaID,
			inc.ID,
			inc.StartedAt,
			endedAt,
			inc.DurationSeconds,
			string(inc.RootCause),
			inc.Resolved,
			string(detailJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to store incident %s: %w", inc.ID, err)
		}
	}

	return nil
}

// ListIncidents retrieves recorded incidents, newest first
func (s *Store) ListIncidents(slaID string, limit int) ([]storage.SLAIncident, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT sla_id, detail_json
		FROM incidents
		WHERE sla_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, slaID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []storage.SLAIncident
	for rows.Next() {
		var rec storage.SLAIncident
		var detailJSON string
		if err := rows.Scan(&rec.SLAID, &detailJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(detailJSON), &rec.Incident); err != nil {
			return nil, fmt.Errorf("failed to unmarshal incident: %w", err)
		}
		incidents = append(incidents, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return incidents, nil
}

// RecordAlertEvent appends a trigger or resolve event to the alert history
func (s *Store) RecordAlertEvent(alertID, eventType string, occurredAt time.Time) error {
	if eventType != storage.AlertEventTrigger && eventType != storage.AlertEventResolve {
		return fmt.Errorf("unknown alert event type: %s", eventType)
	}

	_, err := s.db.Exec(
		"INSERT INTO alert_events (alert_id, event_type, occurred_at) VALUES (?, ?, ?)",
		alertID, eventType, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert event: %w", err)
	}

	return nil
}

// CountAlertTriggers counts trigger events since the given time
func (s *Store) CountAlertTriggers(alertID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM alert_events WHERE alert_id = ? AND event_type = ? AND occurred_at >= ?",
		alertID, storage.AlertEventTrigger, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alert triggers: %w", err)
	}

	return count, nil
}

// LastAlertEvent returns the most recent event for an alert
func (s *Store) LastAlertEvent(alertID string) (string, *time.Time, error) {
	var eventType string
	var occurredAt time.Time

	err := s.db.QueryRow(
		"SELECT event_type, occurred_at FROM alert_events WHERE alert_id = ? ORDER BY occurred_at DESC, id DESC LIMIT 1",
		alertID,
	).Scan(&eventType, &occurredAt)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to get last alert event: %w", err)
	}

	return eventType, &occurredAt, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
