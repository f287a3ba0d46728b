package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error kinds surfaced by window validation. Callers check them with
// errors.Is; evaluators never try to repair a bad window.
var (
	// ErrInvalidWindow marks a window whose intervals are unordered or of
	// unequal width.
	ErrInvalidWindow = errors.New("invalid metric window")

	// ErrIncompleteData marks a window that does not fully cover the
	// requested time range.
	ErrIncompleteData = errors.New("incomplete metric window")
)

// Window is an ordered run of equal-width intervals covering [Start, End).
type Window struct {
	Start     time.Time
	End       time.Time
	Width     time.Duration
	Intervals []Interval
}

// WindowSource supplies metric windows for a project. Implementations live
// in internal/adapter.
type WindowSource interface {
	FetchWindow(ctx context.Context, projectID string, start, end time.Time) (*Window, error)
}

// NewWindow validates intervals against the requested range and returns a
// Window. A zero-length range with no intervals is valid and stands for
// "no data yet"; any other coverage gap is ErrIncompleteData.
func NewWindow(start, end time.Time, intervals []Interval) (*Window, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	if len(intervals) == 0 {
		if !start.Equal(end) {
			return nil, fmt.Errorf("%w: no intervals for non-empty range", ErrIncompleteData)
		}
		return &Window{Start: start, End: end}, nil
	}

	width := end.Sub(start)
	if len(intervals) > 1 {
		width = intervals[1].Timestamp.Sub(intervals[0].Timestamp)
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval width", ErrInvalidWindow)
	}

	for i := 1; i < len(intervals); i++ {
		delta := intervals[i].Timestamp.Sub(intervals[i-1].Timestamp)
		if delta != width {
			return nil, fmt.Errorf("%w: interval %d width %s, expected %s", ErrInvalidWindow, i, delta, width)
		}
	}

	if !intervals[0].Timestamp.Equal(start) {
		return nil, fmt.Errorf("%w: first interval at %s, range starts %s",
			ErrIncompleteData, intervals[0].Timestamp.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	last := intervals[len(intervals)-1].Timestamp.Add(width)
	if !last.Equal(end) {
		return nil, fmt.Errorf("%w: coverage ends %s, range ends %s",
			ErrIncompleteData, last.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return &Window{Start: start, End: end, Width: width, Intervals: intervals}, nil
}

// TotalHours is the total evaluated time in hours.
func (w *Window) TotalHours() float64 {
	return float64(len(w.Intervals)) * w.Width.Hours()
}

// WidthMinutes is the interval width in minutes.
func (w *Window) WidthMinutes() float64 {
	return w.Width.Minutes()
}
