package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rahulrathod315/apipulse/internal/metrics"
)

var windowStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func hourlyIntervals(start time.Time, n int) []metrics.Interval {
	intervals := make([]metrics.Interval, n)
	for i := range intervals {
		intervals[i] = metrics.Interval{
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			RequestCount: 100,
		}
	}
	return intervals
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestFetchWindow(t *testing.T) {
	var gotQuery atomic.Value

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/metrics" {
			http.NotFound(w, r)
			return
		}
		gotQuery.Store(r.URL.Query())

		json.NewEncoder(w).Encode(windowResponse{
			ProjectID:   r.URL.Query().Get("project_id"),
			Granularity: r.URL.Query().Get("granularity"),
			Intervals:   hourlyIntervals(windowStart, 24),
		})
	}))
	defer ts.Close()

	a := NewAdapter(testConfig(ts.URL))
	w, err := a.FetchWindow(context.Background(), "checkout", windowStart, windowStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Intervals) != 24 {
		t.Errorf("expected 24 intervals, got %d", len(w.Intervals))
	}

	query := gotQuery.Load().(url.Values)
	if got := query["project_id"]; len(got) != 1 || got[0] != "checkout" {
		t.Errorf("unexpected project_id %v", got)
	}
	// 24h window selects hourly granularity client-side.
	if got := query["granularity"]; len(got) != 1 || got[0] != string(metrics.GranularityHour) {
		t.Errorf("unexpected granularity %v", got)
	}
	if got := query["start"]; len(got) != 1 || got[0] != windowStart.Format(time.RFC3339) {
		t.Errorf("unexpected start %v", got)
	}
}

func TestFetchWindow_GranularityByLength(t *testing.T) {
	var granularity atomic.Value

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		granularity.Store(r.URL.Query().Get("granularity"))
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))

		intervals := make([]metrics.Interval, 30)
		for i := range intervals {
			intervals[i] = metrics.Interval{
				Timestamp:    start.Add(time.Duration(i) * 24 * time.Hour),
				RequestCount: 100,
			}
		}
		json.NewEncoder(w).Encode(windowResponse{Intervals: intervals})
	}))
	defer ts.Close()

	a := NewAdapter(testConfig(ts.URL))
	_, err := a.FetchWindow(context.Background(), "checkout", windowStart, windowStart.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if granularity.Load() != string(metrics.GranularityDay) {
		t.Errorf("expected daily granularity for a 30d window, got %v", granularity.Load())
	}
}

func TestFetchWindow_RetriesOnFailure(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(windowResponse{Intervals: hourlyIntervals(windowStart, 24)})
	}))
	defer ts.Close()

	a := NewAdapter(testConfig(ts.URL))
	w, err := a.FetchWindow(context.Background(), "checkout", windowStart, windowStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(w.Intervals) != 24 {
		t.Errorf("expected 24 intervals, got %d", len(w.Intervals))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestFetchWindow_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAdapter(testConfig(ts.URL))
	if _, err := a.FetchWindow(context.Background(), "checkout", windowStart, windowStart.Add(time.Hour)); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts (1 retry), got %d", calls.Load())
	}
}

func TestFetchWindow_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(windowResponse{Error: "project not found"})
	}))
	defer ts.Close()

	a := NewAdapter(testConfig(ts.URL))
	if _, err := a.FetchWindow(context.Background(), "nope", windowStart, windowStart.Add(time.Hour)); err == nil {
		t.Fatal("expected error from service error payload")
	}
}

func TestFetchWindow_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(windowResponse{Intervals: hourlyIntervals(windowStart, 1)})
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAdapter(testConfig(ts.URL))
	if _, err := a.FetchWindow(ctx, "checkout", windowStart, windowStart.Add(time.Hour)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
