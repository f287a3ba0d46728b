// Package synthetic is a fixture-backed WindowSource for tests and local
// development.
package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rahulrathod315/apipulse/internal/metrics"
)

// Fixture is the on-disk fixture format: the full interval series known for
// one project.
type Fixture struct {
	ProjectID string             `json:"project_id"`
	Intervals []metrics.Interval `json:"intervals"`
}

// Adapter serves metric windows from in-memory fixtures.
type Adapter struct {
	fixtures map[string]*Fixture
}

// NewAdapter creates a new synthetic adapter
func NewAdapter() *Adapter {
	return &Adapter{
		fixtures: make(map[string]*Fixture),
	}
}

// LoadFixture loads a fixture from a JSON file and registers it under its
// project ID.
func (a *Adapter) LoadFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}
	if fixture.ProjectID == "" {
		return fmt.Errorf("fixture %s has no project_id", path)
	}

	a.fixtures[fixture.ProjectID] = &fixture
	return nil
}

// SetFixture directly registers a fixture (useful for testing)
func (a *Adapter) SetFixture(fixture *Fixture) {
	a.fixtures[fixture.ProjectID] = fixture
}

// FetchWindow implements metrics.WindowSource by slicing the fixture series
// to the requested range. Coverage and uniformity checks still apply, so a
// fixture with holes surfaces the same errors a live source would.
func (a *Adapter) FetchWindow(ctx context.Context, projectID string, start, end time.Time) (*metrics.Window, error) {
	fixture, exists := a.fixtures[projectID]
	if !exists {
		return nil, fmt.Errorf("no fixture for project: %s", projectID)
	}

	var intervals []metrics.Interval
	for _, iv := range fixture.Intervals {
		if !iv.Timestamp.Before(start) && iv.Timestamp.Before(end) {
			intervals = append(intervals, iv)
		}
	}

	return metrics.NewWindow(start, end, intervals)
}
