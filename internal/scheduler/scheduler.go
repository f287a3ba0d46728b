// Package scheduler runs periodic evaluations: one loop per SLA at its
// configured interval, plus a rescoring loop for alert health.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rahulrathod315/apipulse/internal/alerthealth"
	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/metrics"
	"github.com/rahulrathod315/apipulse/internal/sla"
	"github.com/rahulrathod315/apipulse/internal/storage"
)

// DefaultEvaluationInterval applies when an SLA does not set one.
const DefaultEvaluationInterval = 30 * time.Second

// Options configure a scheduler beyond its collaborators.
type Options struct {
	// AlertHistoryDays is the lookback for trigger-frequency estimation.
	AlertHistoryDays int
	// AlertRescoreInterval is the cadence of the alert health loop.
	AlertRescoreInterval time.Duration
	// Compliance and Budget carry the policy constants threaded into
	// every evaluation.
	Compliance compliance.Options
	Budget     budget.Options
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		AlertHistoryDays:     28,
		AlertRescoreInterval: 5 * time.Minute,
		Compliance:           compliance.DefaultOptions(),
		Budget:               budget.DefaultOptions(),
	}
}

// Scheduler manages periodic SLA evaluations and alert rescoring.
type Scheduler struct {
	source      metrics.WindowSource
	defsDir     string
	schemaDir   string
	opts        Options
	cache       *StateCache
	alertScores *AlertScoreCache

	mu      sync.RWMutex
	defs    *sla.Definitions
	store   storage.EvaluationStore
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a new scheduler
func NewScheduler(source metrics.WindowSource, defsDir, schemaDir string, opts Options) *Scheduler {
	return &Scheduler{
		source:      source,
		defsDir:     defsDir,
		schemaDir:   schemaDir,
		opts:        opts,
		cache:       NewStateCache(),
		alertScores: NewAlertScoreCache(),
	}
}

// SetStore sets the persistence backend (optional)
func (s *Scheduler) SetStore(store storage.EvaluationStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// LoadDefinitions loads and validates SLA and alert definitions from the
// configured directory.
func (s *Scheduler) LoadDefinitions() error {
	validator, err := sla.NewValidator(s.schemaDir)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}

	validationErrors := validator.ValidateDirectory(s.defsDir)
	if len(validationErrors) > 0 {
		return fmt.Errorf("%w: definition validation failed: %d errors",
			sla.ErrMissingConfiguration, len(validationErrors))
	}

	defs, loadErrors := sla.LoadFromDirectory(s.defsDir)
	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load definitions: %d errors", len(loadErrors))
	}
	if defs == nil || len(defs.SLAs) == 0 {
		return fmt.Errorf("no SLA definitions found in %s", s.defsDir)
	}

	s.mu.Lock()
	s.defs = defs
	store := s.store
	s.mu.Unlock()

	if store != nil {
		for _, sw := range defs.SLAs {
			if err := store.StoreSLADefinition(sw.SLA); err != nil {
				log.Printf("Warning: failed to store SLA definition %s: %v", sw.SLA.Metadata.ID, err)
			}
		}
		for _, aw := range defs.Alerts {
			if err := store.StoreAlertDefinition(aw.Alert); err != nil {
				log.Printf("Warning: failed to store alert definition %s: %v", aw.Alert.Metadata.ID, err)
			}
		}
	}

	log.Printf("Loaded %d SLAs and %d alerts", len(defs.SLAs), len(defs.Alerts))
	return nil
}

// Start begins the evaluation loops
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	if s.defs == nil || len(s.defs.SLAs) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no definitions loaded, call LoadDefinitions() first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	defs := s.defs
	s.mu.Unlock()

	for _, sw := range defs.SLAs {
		s.wg.Add(1)
		go s.evaluateLoop(ctx, sw.SLA)
	}

	if len(defs.Alerts) > 0 {
		s.wg.Add(1)
		go s.rescoreLoop(ctx)
	}

	log.Printf("Started scheduler for %d SLAs", len(defs.SLAs))
	return nil
}

// Stop stops the scheduler and waits for all loops to drain
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.cancel()
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping scheduler...")
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// evaluateLoop runs periodic evaluations for a single SLA
func (s *Scheduler) evaluateLoop(ctx context.Context, def *sla.SLA) {
	defer s.wg.Done()

	interval := DefaultEvaluationInterval
	if def.Spec.EvaluationInterval != "" {
		parsed, err := sla.ParseDuration(def.Spec.EvaluationInterval)
		if err != nil {
			log.Printf("Error parsing evaluation interval for SLA %s: %v", def.Metadata.ID, err)
			return
		}
		interval = parsed
	}

	s.evaluateOnce(ctx, def, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluateOnce(ctx, def, interval)
		}
	}
}

// evaluateOnce fetches the SLA's period window ending now and runs the full
// pipeline: compliance, budget, incidents.
func (s *Scheduler) evaluateOnce(ctx context.Context, def *sla.SLA, interval time.Duration) {
	now := time.Now().UTC()
	periodStart := now.Add(-time.Duration(def.Spec.EvaluationPeriod.Days()) * 24 * time.Hour)

	window, err := s.source.FetchWindow(ctx, def.Metadata.Project, periodStart, now)
	if err != nil {
		log.Printf("Error fetching window for SLA %s: %v", def.Metadata.ID, err)
		return
	}

	cr, err := compliance.Evaluate(def, window, s.opts.Compliance)
	if err != nil {
		log.Printf("Error evaluating SLA %s: %v", def.Metadata.ID, err)
		return
	}

	bud, err := budget.Track(def.Spec.UptimeTargetPercent, def.Spec.EvaluationPeriod, cr, periodStart, now, s.opts.Budget)
	if err != nil {
		log.Printf("Error tracking budget for SLA %s: %v", def.Metadata.ID, err)
		return
	}

	incidents, err := incident.Detect(window, incident.Config{
		Down:               compliance.DownPredicate(window.WidthMinutes(), def.Spec.Downtime),
		ErrorRateThreshold: def.Spec.Downtime.ErrorRatePercent,
		LatencyThresholdMs: float64(def.Spec.ResponseTime.TargetMs),
	})
	if err != nil {
		log.Printf("Error detecting incidents for SLA %s: %v", def.Metadata.ID, err)
		return
	}

	s.cache.Set(def.Metadata.ID, &EvaluationState{
		Compliance: cr,
		Budget:     bud,
		Incidents:  incidents,
		UpdatedAt:  now,
		TTL:        interval,
	})

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store != nil {
		rec := &storage.EvaluationRecord{
			SLAID:           def.Metadata.ID,
			Project:         def.Metadata.Project,
			MeetingSLA:      cr.MeetingSLA,
			AtRisk:          cr.AtRisk,
			Accelerating:    bud.Accelerating,
			UptimePercent:   cr.UptimePercent,
			DownHours:       cr.DownHours,
			ConsumedPercent: bud.ConsumedPercent,
			Compliance:      cr,
			Budget:          bud,
			Timestamp:       now,
		}
		if err := store.StoreEvaluation(rec); err != nil {
			log.Printf("Warning: failed to store evaluation for SLA %s: %v", def.Metadata.ID, err)
		}
		if err := store.StoreIncidents(def.Metadata.ID, incidents); err != nil {
			log.Printf("Warning: failed to store incidents for SLA %s: %v", def.Metadata.ID, err)
		}
	}

	log.Printf("Evaluated SLA %s: meeting=%v, uptime=%.3f%%, budget=%.1f%%, incidents=%d",
		def.Metadata.ID, cr.MeetingSLA, cr.UptimePercent, bud.ConsumedPercent, len(incidents))
}

// rescoreLoop periodically rescores all alert definitions from trigger
// history.
func (s *Scheduler) rescoreLoop(ctx context.Context) {
	defer s.wg.Done()

	s.ScoreAlertsNow()

	ticker := time.NewTicker(s.opts.AlertRescoreInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ScoreAlertsNow()
		}
	}
}

// ScoreAlertsNow rescores every loaded alert immediately.
func (s *Scheduler) ScoreAlertsNow() {
	s.mu.RLock()
	defs := s.defs
	store := s.store
	s.mu.RUnlock()

	if defs == nil {
		return
	}

	now := time.Now().UTC()
	for _, aw := range defs.Alerts {
		s.scoreAlert(aw.Alert, store, now)
	}
}

// scoreAlert rescores one alert. Trigger frequency comes from recorded
// history; with no store, the alert is scored on configuration alone.
func (s *Scheduler) scoreAlert(def *sla.Alert, store storage.EvaluationStore, now time.Time) {
	input := alerthealth.Input{
		Enabled:                 def.Spec.Enabled,
		EvaluationWindowMinutes: def.Spec.EvaluationWindowMinutes,
		CooldownMinutes:         def.Spec.CooldownMinutes,
		NotifyOnTrigger:         def.Spec.NotifyOnTrigger,
		NotifyOnResolve:         def.Spec.NotifyOnResolve,
	}

	if store != nil {
		since := now.Add(-time.Duration(s.opts.AlertHistoryDays) * 24 * time.Hour)
		count, err := store.CountAlertTriggers(def.Metadata.ID, since)
		if err != nil {
			log.Printf("Warning: failed to count triggers for alert %s: %v", def.Metadata.ID, err)
		} else {
			input.TriggersPerWeek = float64(count) * 7 / float64(s.opts.AlertHistoryDays)
		}

		eventType, occurredAt, err := store.LastAlertEvent(def.Metadata.ID)
		if err != nil {
			log.Printf("Warning: failed to get last event for alert %s: %v", def.Metadata.ID, err)
		} else if occurredAt != nil {
			input.LastTriggeredAt = occurredAt
			if eventType == storage.AlertEventTrigger {
				input.Status = alerthealth.StatusTriggered
			}
		}
	}

	score := alerthealth.ScoreAlert(input, now)
	s.alertScores.Set(def.Metadata.ID, &AlertHealthState{
		Score:           score,
		TriggersPerWeek: input.TriggersPerWeek,
		UpdatedAt:       now,
	})
}

// EvaluateNow forces immediate evaluation of a specific SLA
func (s *Scheduler) EvaluateNow(slaID string) error {
	s.mu.RLock()
	var target *sla.SLA
	if s.defs != nil {
		for _, sw := range s.defs.SLAs {
			if sw.SLA.Metadata.ID == slaID {
				target = sw.SLA
				break
			}
		}
	}
	s.mu.RUnlock()

	if target == nil {
		return fmt.Errorf("SLA not found: %s", slaID)
	}

	interval := DefaultEvaluationInterval
	if target.Spec.EvaluationInterval != "" {
		parsed, err := sla.ParseDuration(target.Spec.EvaluationInterval)
		if err != nil {
			return fmt.Errorf("invalid evaluation interval: %w", err)
		}
		interval = parsed
	}

	s.evaluateOnce(context.Background(), target, interval)
	return nil
}

// GetCache returns the SLA state cache
func (s *Scheduler) GetCache() *StateCache {
	return s.cache
}

// GetAlertScores returns the alert score cache
func (s *Scheduler) GetAlertScores() *AlertScoreCache {
	return s.alertScores
}

// GetStore returns the persistence backend
func (s *Scheduler) GetStore() storage.EvaluationStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetDefinitions returns the loaded definitions
func (s *Scheduler) GetDefinitions() *sla.Definitions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defs
}

// SetDefinitionsForTest sets definitions directly (for testing only)
func (s *Scheduler) SetDefinitionsForTest(defs *sla.Definitions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = defs
}
