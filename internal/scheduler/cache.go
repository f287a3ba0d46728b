package scheduler

import (
	"sync"
	"time"

	"github.com/rahulrathod315/apipulse/internal/alerthealth"
	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
)

// EvaluationState is the cached evaluation output for one SLA.
type EvaluationState struct {
	Compliance *compliance.Result
	Budget     *budget.Budget
	Incidents  []incident.Incident
	UpdatedAt  time.Time
	TTL        time.Duration
}

// IsStale returns true if the cached state is older than its TTL. Staleness
// is surfaced to callers, never silently refreshed.
func (s *EvaluationState) IsStale(now time.Time) bool {
	return now.Sub(s.UpdatedAt) > s.TTL
}

// StateCache is a thread-safe cache of SLA evaluation states
type StateCache struct {
	mu     sync.RWMutex
	states map[string]*EvaluationState
}

// NewStateCache creates a new state cache
func NewStateCache() *StateCache {
	return &StateCache{
		states: make(map[string]*EvaluationState),
	}
}

// Get retrieves cached state for an SLA
func (c *StateCache) Get(slaID string) (*EvaluationState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, exists := c.states[slaID]
	return state, exists
}

// Set stores evaluation state for an SLA
func (c *StateCache) Set(slaID string, state *EvaluationState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.states[slaID] = state
}

// GetAll returns a snapshot of all cached states
func (c *StateCache) GetAll() map[string]*EvaluationState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]*EvaluationState, len(c.states))
	for k, v := range c.states {
		snapshot[k] = v
	}

	return snapshot
}

// Delete removes a cached state
func (c *StateCache) Delete(slaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.states, slaID)
}

// Size returns the number of cached states
func (c *StateCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.states)
}

// AlertHealthState is the cached health score for one alert.
type AlertHealthState struct {
	Score           alerthealth.Score
	TriggersPerWeek float64
	UpdatedAt       time.Time
}

// AlertScoreCache is a thread-safe cache of alert health states
type AlertScoreCache struct {
	mu     sync.RWMutex
	scores map[string]*AlertHealthState
}

// NewAlertScoreCache creates a new alert score cache
func NewAlertScoreCache() *AlertScoreCache {
	return &AlertScoreCache{
		scores: make(map[string]*AlertHealthState),
	}
}

// Get retrieves the cached health state for an alert
func (c *AlertScoreCache) Get(alertID string) (*AlertHealthState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, exists := c.scores[alertID]
	return state, exists
}

// Set stores the health state for an alert
func (c *AlertScoreCache) Set(alertID string, state *AlertHealthState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scores[alertID] = state
}

// Size returns the number of cached scores
func (c *AlertScoreCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.scores)
}
