// Package alerthealth scores how well-tuned a threshold alert is, based on
// its configuration and its observed trigger history.
package alerthealth

import (
	"fmt"
	"time"
)

// Level is the health tier implied by a score.
type Level string

const (
	LevelHealthy     Level = "healthy"      // score >= 80
	LevelNeedsTuning Level = "needs-tuning" // score >= 50
	LevelNoisy       Level = "noisy"        // score < 50
)

// StatusTriggered is the alert status value meaning "currently firing".
const StatusTriggered = "triggered"

// Input is everything the scorer reads about one alert. TriggersPerWeek
// must come from real trigger history, not an estimate.
type Input struct {
	Enabled                 bool
	EvaluationWindowMinutes int
	CooldownMinutes         int
	NotifyOnTrigger         bool
	NotifyOnResolve         bool
	Status                  string
	LastTriggeredAt         *time.Time
	TriggersPerWeek         float64
}

// Score is the composite 0-100 health verdict for one alert.
type Score struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Reasons []string `json:"reasons"`
}

// ScoreAlert starts from 100 and applies every deduction that matches,
// appending a reason per deduction in evaluation order. The frequency
// brackets are mutually exclusive, as are the triggered-age brackets.
func ScoreAlert(in Input, now time.Time) Score {
	score := 100
	var reasons []string

	deduct := func(points int, reason string) {
		score -= points
		reasons = append(reasons, reason)
	}

	if in.TriggersPerWeek > 10 {
		deduct(30, fmt.Sprintf("triggers very frequently (%.1f/week)", in.TriggersPerWeek))
	} else if in.TriggersPerWeek > 5 {
		deduct(15, fmt.Sprintf("triggers frequently (%.1f/week)", in.TriggersPerWeek))
	} else if in.TriggersPerWeek > 2 {
		deduct(5, fmt.Sprintf("triggers somewhat often (%.1f/week)", in.TriggersPerWeek))
	}

	if !in.Enabled {
		deduct(20, "alert is disabled")
	}

	if in.EvaluationWindowMinutes < 5 {
		deduct(10, fmt.Sprintf("evaluation window of %dm is too short", in.EvaluationWindowMinutes))
	}

	if in.CooldownMinutes < 15 {
		deduct(5, fmt.Sprintf("cooldown of %dm invites repeat notifications", in.CooldownMinutes))
	}

	if !in.NotifyOnTrigger && !in.NotifyOnResolve {
		deduct(15, "no notifications configured")
	}

	if in.Status == StatusTriggered && in.LastTriggeredAt != nil {
		hoursSince := now.Sub(*in.LastTriggeredAt).Hours()
		if hoursSince > 24 {
			deduct(20, fmt.Sprintf("triggered for %.0f hours without resolution", hoursSince))
		} else if hoursSince > 4 {
			deduct(10, fmt.Sprintf("triggered for %.1f hours", hoursSince))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if len(reasons) == 0 {
		reasons = []string{"well-configured"}
	}

	return Score{
		Score:   score,
		Level:   levelFor(score),
		Reasons: reasons,
	}
}

func levelFor(score int) Level {
	switch {
	case score >= 80:
		return LevelHealthy
	case score >= 50:
		return LevelNeedsTuning
	default:
		return LevelNoisy
	}
}
