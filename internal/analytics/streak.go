package analytics

import (
	"slices"
	"time"
)

// ComputeStreak counts consecutive calendar days with at least one workout, walking
// back from reference. The most recent day may be the day before reference, so a
// streak survives until something is logged today. Days after reference are ignored.
func ComputeStreak(dates []time.Time, reference time.Time) int {
	cursor := Day(reference)
	streak := 0
	for _, d := range distinctDaysDesc(dates) {
		if d.After(cursor) {
			continue
		}
		if !d.Equal(cursor) && !d.Equal(cursor.AddDate(0, 0, -1)) {
			break
		}
		streak++
		cursor = d
	}
	return streak
}

// LongestStreak returns the longest run of consecutive workout days in dates.
func LongestStreak(dates []time.Time) int {
	days := distinctDaysDesc(dates)
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			run++
			longest = max(longest, run)
			continue
		}
		run = 1
	}
	return longest
}

// WorkoutDates extracts the dates of workouts for the streak functions.
func WorkoutDates(workouts []WorkoutRecord) []time.Time {
	out := make([]time.Time, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, w.Date)
	}
	return out
}

func distinctDaysDesc(dates []time.Time) []time.Time {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, Day(d))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return slices.CompactFunc(days, time.Time.Equal)
}
