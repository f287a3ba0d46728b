package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- SLA definitions table
CREATE TABLE IF NOT EXISTS sla_definitions (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	uptime_target REAL NOT NULL,
	evaluation_period TEXT NOT NULL,
	spec_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sla_project ON sla_definitions(project);

-- Alert definitions table
CREATE TABLE IF NOT EXISTS alert_definitions (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	spec_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_alert_project ON alert_definitions(project);

-- Evaluation snapshots table
CREATE TABLE IF NOT EXISTS evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sla_id TEXT NOT NULL,
	project TEXT NOT NULL,
	meeting_sla BOOLEAN NOT NULL DEFAULT 0,
	at_risk BOOLEAN NOT NULL DEFAULT 0,
	accelerating BOOLEAN NOT NULL DEFAULT 0,
	uptime_percent REAL NOT NULL,
	down_hours REAL NOT NULL,
	consumed_percent REAL NOT NULL,
	compliance_json TEXT NOT NULL,
	budget_json TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sla_id) REFERENCES sla_definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_evaluations_sla_id ON evaluations(sla_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_project ON evaluations(project);
CREATE INDEX IF NOT EXISTS idx_evaluations_timestamp ON evaluations(timestamp DESC);

-- Incident log (upserted by deterministic incident ID)
CREATE TABLE IF NOT EXISTS incidents (
	sla_id TEXT NOT NULL,
	id TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	ended_at TIMESTAMP,
	duration_seconds INTEGER NOT NULL,
	root_cause TEXT NOT NULL,
	resolved BOOLEAN NOT NULL DEFAULT 0,
	detail_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (sla_id, id)
);

CREATE INDEX IF NOT EXISTS idx_incidents_started ON incidents(started_at DESC);

-- Alert trigger/resolve history
CREATE TABLE IF NOT EXISTS alert_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	alert_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	occurred_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_events_alert ON alert_events(alert_id, occurred_at DESC);
`
