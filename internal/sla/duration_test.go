package sla

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "30s", expected: 30 * time.Second},
		{input: "5m", expected: 5 * time.Minute},
		{input: "1h", expected: time.Hour},
		{input: "30d", expected: 30 * 24 * time.Hour},
		{input: "0s", expected: 0},
		{input: "", wantErr: true},
		{input: "30", wantErr: true},
		{input: "s", wantErr: true},
		{input: "1.5h", wantErr: true},
		{input: "-5m", wantErr: true},
		{input: "5w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestPeriodDays(t *testing.T) {
	tests := []struct {
		period   Period
		expected int
	}{
		{period: PeriodWeekly, expected: 7},
		{period: PeriodMonthly, expected: 30},
		{period: PeriodQuarterly, expected: 90},
		{period: Period("yearly"), expected: 0},
		{period: Period(""), expected: 0},
	}

	for _, tt := range tests {
		if got := tt.period.Days(); got != tt.expected {
			t.Errorf("%q: expected %d days, got %d", tt.period, tt.expected, got)
		}
	}
}
