package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/metrics"
	"github.com/rahulrathod315/apipulse/internal/sla"
	"github.com/rahulrathod315/apipulse/internal/storage"
)

// fakeSource serves synthetic hourly windows. outageHours marks offsets
// from the window start that carry no traffic.
type fakeSource struct {
	outageHours map[int]bool
}

func (f *fakeSource) FetchWindow(_ context.Context, _ string, start, end time.Time) (*metrics.Window, error) {
	n := int(end.Sub(start) / time.Hour)
	intervals := make([]metrics.Interval, n)
	for i := range intervals {
		intervals[i] = metrics.Interval{
			Timestamp:         start.Add(time.Duration(i) * time.Hour),
			AvgResponseTimeMs: 120,
			P95ResponseTimeMs: 250,
		}
		if !f.outageHours[i] {
			intervals[i].RequestCount = 1000
			intervals[i].ErrorCount = 5
		}
	}
	return metrics.NewWindow(start, start.Add(time.Duration(n)*time.Hour), intervals)
}

// fakeStore is an in-memory EvaluationStore for scheduler tests.
type fakeStore struct {
	mu          sync.Mutex
	evaluations []storage.EvaluationRecord
	incidents   map[string][]incident.Incident
	events      map[string][]alertEvent
}

type alertEvent struct {
	eventType  string
	occurredAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		incidents: map[string][]incident.Incident{},
		events:    map[string][]alertEvent{},
	}
}

func (f *fakeStore) StoreSLADefinition(*sla.SLA) error     { return nil }
func (f *fakeStore) StoreAlertDefinition(*sla.Alert) error { return nil }

func (f *fakeStore) StoreEvaluation(rec *storage.EvaluationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations = append(f.evaluations, *rec)
	return nil
}

func (f *fakeStore) QueryEvaluations(storage.EvaluationFilter) ([]storage.EvaluationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.EvaluationRecord(nil), f.evaluations...), nil
}

func (f *fakeStore) LatestEvaluation(slaID string) (*storage.EvaluationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.evaluations) - 1; i >= 0; i-- {
		if f.evaluations[i].SLAID == slaID {
			rec := f.evaluations[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) StoreIncidents(slaID string, incidents []incident.Incident) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incidents[slaID] = incidents
	return nil
}

func (f *fakeStore) ListIncidents(slaID string, _ int) ([]storage.SLAIncident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.SLAIncident
	for _, inc := range f.incidents[slaID] {
		out = append(out, storage.SLAIncident{SLAID: slaID, Incident: inc})
	}
	return out, nil
}

func (f *fakeStore) RecordAlertEvent(alertID, eventType string, occurredAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[alertID] = append(f.events[alertID], alertEvent{eventType, occurredAt})
	return nil
}

func (f *fakeStore) CountAlertTriggers(alertID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ev := range f.events[alertID] {
		if ev.eventType == storage.AlertEventTrigger && !ev.occurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LastAlertEvent(alertID string) (string, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.events[alertID]
	if len(events) == 0 {
		return "", nil, nil
	}
	last := events[len(events)-1]
	return last.eventType, &last.occurredAt, nil
}

func (f *fakeStore) Close() error { return nil }

func testDefinitions() *sla.Definitions {
	def := &sla.SLA{
		Metadata: sla.Metadata{ID: "checkout-availability", Project: "checkout"},
		Spec: sla.Spec{
			UptimeTargetPercent:    99.9,
			ResponseTime:           sla.ResponseTimeTarget{TargetMs: 300, Percentile: "p95"},
			ErrorRateTargetPercent: 1.0,
			EvaluationPeriod:       sla.PeriodMonthly,
			Downtime:               sla.DowntimeThresholds{ErrorRatePercent: 50, NoTrafficMinutes: 5},
		},
	}
	alert := &sla.Alert{
		Metadata: sla.Metadata{ID: "checkout-error-spike", Project: "checkout"},
		Spec: sla.AlertSpec{
			Enabled:                 true,
			EvaluationWindowMinutes: 10,
			CooldownMinutes:         20,
			NotifyOnTrigger:         true,
			NotifyOnResolve:         true,
		},
	}
	return &sla.Definitions{
		SLAs:   []sla.SLAWithFile{{SLA: def, File: "checkout-sla.yaml"}},
		Alerts: []sla.AlertWithFile{{Alert: alert, File: "checkout-alert.yaml"}},
	}
}

func TestEvaluateNow(t *testing.T) {
	s := NewScheduler(&fakeSource{outageHours: map[int]bool{5: true, 6: true, 7: true}}, "", "", DefaultOptions())
	s.SetDefinitionsForTest(testDefinitions())
	store := newFakeStore()
	s.SetStore(store)

	if err := s.EvaluateNow("checkout-availability"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, exists := s.GetCache().Get("checkout-availability")
	if !exists {
		t.Fatal("expected cached state after evaluation")
	}
	if state.Compliance == nil || state.Budget == nil {
		t.Fatal("expected compliance and budget in cached state")
	}
	if state.Compliance.DownHours != 3 {
		t.Errorf("expected 3 down hours, got %f", state.Compliance.DownHours)
	}
	if len(state.Incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(state.Incidents))
	}
	if state.Incidents[0].RootCause != incident.RootCauseNoTraffic {
		t.Errorf("expected no_traffic root cause, got %s", state.Incidents[0].RootCause)
	}

	rec, err := store.LatestEvaluation("checkout-availability")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a persisted evaluation record")
	}
	if rec.DownHours != 3 {
		t.Errorf("expected 3 persisted down hours, got %f", rec.DownHours)
	}
}

func TestEvaluateNow_UnknownSLA(t *testing.T) {
	s := NewScheduler(&fakeSource{}, "", "", DefaultOptions())
	s.SetDefinitionsForTest(testDefinitions())

	if err := s.EvaluateNow("nope"); err == nil {
		t.Error("expected error for unknown SLA")
	}
}

func TestScoreAlertsNow_FromHistory(t *testing.T) {
	opts := DefaultOptions()
	opts.AlertHistoryDays = 7

	s := NewScheduler(&fakeSource{}, "", "", opts)
	s.SetDefinitionsForTest(testDefinitions())

	store := newFakeStore()
	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		store.RecordAlertEvent("checkout-error-spike", storage.AlertEventTrigger, now.Add(-time.Duration(i)*time.Hour))
	}
	s.SetStore(store)

	s.ScoreAlertsNow()

	state, exists := s.GetAlertScores().Get("checkout-error-spike")
	if !exists {
		t.Fatal("expected a cached alert score")
	}
	if state.TriggersPerWeek != 12 {
		t.Errorf("expected 12 triggers/week over a 7-day lookback, got %f", state.TriggersPerWeek)
	}
	// -30 for frequency, -10 for the recent unresolved trigger.
	if state.Score.Score != 60 {
		t.Errorf("expected score 60, got %d", state.Score.Score)
	}
}

func TestScoreAlertsNow_WithoutStore(t *testing.T) {
	s := NewScheduler(&fakeSource{}, "", "", DefaultOptions())
	s.SetDefinitionsForTest(testDefinitions())

	s.ScoreAlertsNow()

	state, exists := s.GetAlertScores().Get("checkout-error-spike")
	if !exists {
		t.Fatal("expected a cached alert score")
	}
	if state.Score.Score != 100 {
		t.Errorf("expected configuration-only score 100, got %d", state.Score.Score)
	}
	if state.TriggersPerWeek != 0 {
		t.Errorf("expected zero trigger frequency without history, got %f", state.TriggersPerWeek)
	}
}

func TestStartRequiresDefinitions(t *testing.T) {
	s := NewScheduler(&fakeSource{}, "", "", DefaultOptions())

	if err := s.Start(); err == nil {
		t.Error("expected error starting without definitions")
		s.Stop()
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeSource{}, "", "", DefaultOptions())
	s.SetDefinitionsForTest(testDefinitions())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("expected error on double start")
	}

	// The initial evaluation runs synchronously inside each loop before
	// the first tick; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for s.GetCache().Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	s.Stop()

	if _, exists := s.GetCache().Get("checkout-availability"); !exists {
		t.Error("expected an evaluation before shutdown")
	}
}
