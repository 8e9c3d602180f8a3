package core

import (
	"math"
	"time"
)

// GoalProgress is the derived view of one savings goal.
type GoalProgress struct {
	Percentage    int  `json:"percentage"`
	DaysRemaining int  `json:"daysRemaining"`
	IsCompleted   bool `json:"isCompleted"`
}

// GoalsSummary aggregates across all of a user's goals. Unlike the
// per-goal percentage, the overall percentage is not clamped to 100;
// over-saving past every target shows as more than 100%.
type GoalsSummary struct {
	TotalTargetAmount  Money `json:"totalTargetAmount"`
	TotalCurrentAmount Money `json:"totalCurrentAmount"`
	OverallPercentage  int   `json:"overallPercentage"`
}

// TrackGoal derives percent-complete and days-remaining for a goal.
// The percentage is clamped to [0,100] and a zero target evaluates to 0%.
// A past target date yields zero days remaining, never a negative count.
func TrackGoal(g Goal, now time.Time) GoalProgress {
	pct := clampedPercent(g.CurrentAmount.Cents, g.TargetAmount.Cents)
	days := int(math.Ceil(g.TargetDate.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return GoalProgress{
		Percentage:    pct,
		DaysRemaining: days,
		IsCompleted:   pct >= 100,
	}
}

// UpdateProgress overwrites the goal's saved amount. The new value is an
// absolute figure, not a delta, and the previous value is not retained.
func (g *Goal) UpdateProgress(newAmount Money) {
	g.CurrentAmount = newAmount
}

// SummarizeGoals totals targets and saved amounts across goals.
func SummarizeGoals(goals []Goal) GoalsSummary {
	var target, current int64
	for _, g := range goals {
		target += g.TargetAmount.Cents
		current += g.CurrentAmount.Cents
	}
	return GoalsSummary{
		TotalTargetAmount:  Money{Cents: target},
		TotalCurrentAmount: Money{Cents: current},
		OverallPercentage:  percent(current, target),
	}
}

// PrimaryGoal picks the deterministic "savings goal" used by the
// dashboard shortcut: the earliest-created goal, ties broken by ID.
// Returns false when the user has no goals.
func PrimaryGoal(goals []Goal) (Goal, bool) {
	if len(goals) == 0 {
		return Goal{}, false
	}
	primary := goals[0]
	for _, g := range goals[1:] {
		if g.CreatedAt.Before(primary.CreatedAt) ||
			(g.CreatedAt.Equal(primary.CreatedAt) && g.ID < primary.ID) {
			primary = g
		}
	}
	return primary, true
}
