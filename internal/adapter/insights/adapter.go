// Package insights is the WindowSource client for the API Insights metrics
// service, a read-only REST/JSON source of per-interval observations.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rahulrathod315/apipulse/internal/metrics"
)

// Config holds insights adapter configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxConcurrency int64
	RetryCount     int
	RetryDelay     time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig(baseURL string) Config {
	return Config{
		URL:            baseURL,
		Timeout:        10 * time.Second,
		MaxConcurrency: 10,
		RetryCount:     1,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Adapter fetches metric windows over HTTP with bounded concurrency.
type Adapter struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
}

// NewAdapter creates a new insights adapter
func NewAdapter(config Config) *Adapter {
	return &Adapter{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		sem: semaphore.NewWeighted(config.MaxConcurrency),
	}
}

// windowResponse is the wire format of the metrics endpoint.
type windowResponse struct {
	ProjectID   string             `json:"project_id"`
	Granularity string             `json:"granularity"`
	Intervals   []metrics.Interval `json:"intervals"`
	Error       string             `json:"error,omitempty"`
}

// FetchWindow implements metrics.WindowSource. The interval granularity is
// selected from the window length, never by the server.
func (a *Adapter) FetchWindow(ctx context.Context, projectID string, start, end time.Time) (*metrics.Window, error) {
	granularity := metrics.SelectGranularity(start, end)

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("semaphore acquire: %w", err)
	}
	defer a.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= a.config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(a.config.RetryDelay)
		}

		resp, err := a.executeQuery(ctx, projectID, start, end, granularity)
		if err == nil {
			return metrics.NewWindow(start, end, resp.Intervals)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch window failed after %d attempts: %w", a.config.RetryCount+1, lastErr)
}

// executeQuery performs a single metrics request
func (a *Adapter) executeQuery(ctx context.Context, projectID string, start, end time.Time, granularity metrics.Granularity) (*windowResponse, error) {
	queryURL := fmt.Sprintf("%s/api/v1/metrics", strings.TrimSuffix(a.config.URL, "/"))

	params := url.Values{}
	params.Add("project_id", projectID)
	params.Add("start", start.Format(time.RFC3339))
	params.Add("end", end.Format(time.RFC3339))
	params.Add("granularity", string(granularity))

	fullURL := queryURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var result windowResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("insights error: %s", result.Error)
	}

	return &result, nil
}
