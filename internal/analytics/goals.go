package analytics

// GoalProgress is a goal with its completion percentage.
type GoalProgress struct {
	Goal    GoalRecord `json:"goal"`
	Percent *float64   `json:"percent,omitempty"`
}

// GoalSummary counts goals by status.
type GoalSummary struct {
	Total     int            `json:"total"`
	Active    int            `json:"active"`
	Completed int            `json:"completed"`
	Paused    int            `json:"paused"`
	Cancelled int            `json:"cancelled"`
	Progress  []GoalProgress `json:"progress"`
}

// GoalPercent returns current/target as a percentage clamped to [0, 100], or nil when
// the goal has no positive target.
func GoalPercent(goal GoalRecord) *float64 {
	if goal.TargetValue == nil || *goal.TargetValue <= 0 {
		return nil
	}
	p := goal.CurrentValue / *goal.TargetValue * 100
	p = roundTenth(min(max(p, 0), 100))
	return &p
}

// SummarizeGoals counts goals per status and lists active goals with their progress.
func SummarizeGoals(goals []GoalRecord) GoalSummary {
	summary := GoalSummary{Progress: make([]GoalProgress, 0)}
	for _, g := range goals {
		summary.Total++
		switch g.Status {
		case GoalActive:
			summary.Active++
			summary.Progress = append(summary.Progress, GoalProgress{Goal: g, Percent: GoalPercent(g)})
		case GoalCompleted:
			summary.Completed++
		case GoalPaused:
			summary.Paused++
		case GoalCancelled:
			summary.Cancelled++
		}
	}
	return summary
}
