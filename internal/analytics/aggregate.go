package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// BucketCount is the number of records that fell inside a bucket.
type BucketCount struct {
	Bucket Bucket `json:"bucket"`
	Count  int    `json:"count"`
}

// CountByBucket counts items per bucket using dateOf to place each one.
func CountByBucket[T any](items []T, dateOf func(T) time.Time, buckets []Bucket) []BucketCount {
	out := make([]BucketCount, len(buckets))
	for i, b := range buckets {
		out[i].Bucket = b
	}
	for _, item := range items {
		if i := bucketIndex(buckets, dateOf(item)); i >= 0 {
			out[i].Count++
		}
	}
	return out
}

// WorkoutCounts counts workouts per bucket.
func WorkoutCounts(workouts []WorkoutRecord, buckets []Bucket) []BucketCount {
	return CountByBucket(workouts, func(w WorkoutRecord) time.Time { return w.Date }, buckets)
}

// CheckInCounts counts facility check-ins per bucket.
func CheckInCounts(checkIns []CheckInRecord, buckets []Bucket) []BucketCount {
	return CountByBucket(checkIns, func(c CheckInRecord) time.Time { return c.Date }, buckets)
}

// BucketVolume summarises workout durations inside a bucket. Averages only consider
// workouts that reported a duration.
type BucketVolume struct {
	Bucket          Bucket  `json:"bucket"`
	Workouts        int     `json:"workouts"`
	TotalMinutes    int     `json:"total_minutes"`
	AverageMinutes  float64 `json:"average_minutes"`
	TimedWorkouts   int     `json:"timed_workouts"`
	ExerciseEntries int     `json:"exercise_entries"`
}

// WorkoutVolume reduces workouts per bucket to counts, duration sums and averages.
func WorkoutVolume(workouts []WorkoutRecord, buckets []Bucket) []BucketVolume {
	out := make([]BucketVolume, len(buckets))
	for i, b := range buckets {
		out[i].Bucket = b
	}
	for _, w := range workouts {
		i := bucketIndex(buckets, w.Date)
		if i < 0 {
			continue
		}
		v := &out[i]
		v.Workouts++
		v.ExerciseEntries += len(w.Exercises)
		if w.DurationMinutes != nil && *w.DurationMinutes >= 0 {
			v.TimedWorkouts++
			v.TotalMinutes += *w.DurationMinutes
		}
	}
	for i := range out {
		if out[i].TimedWorkouts > 0 {
			out[i].AverageMinutes = roundTenth(float64(out[i].TotalMinutes) / float64(out[i].TimedWorkouts))
		}
	}
	return out
}

func bucketIndex(buckets []Bucket, t time.Time) int {
	for i, b := range buckets {
		if b.Contains(t) {
			return i
		}
	}
	return -1
}

// MuscleGroupPalette colours distribution entries by rank.
var MuscleGroupPalette = []string{
	"#6366F1",
	"#22C55E",
	"#F59E0B",
	"#EF4444",
	"#06B6D4",
	"#A855F7",
	"#EC4899",
	"#84CC16",
}

// MuscleGroupShare is one slice of the muscle-group distribution.
type MuscleGroupShare struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// MuscleGroupDistribution counts exercise entries per muscle group across workouts,
// most frequent first. Entries without a muscle group are skipped. topK <= 0 keeps all.
func MuscleGroupDistribution(workouts []WorkoutRecord, topK int) []MuscleGroupShare {
	counts := make(map[string]int)
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			name := strings.TrimSpace(ex.MuscleGroup)
			if name == "" {
				continue
			}
			counts[name]++
		}
	}

	out := make([]MuscleGroupShare, 0, len(counts))
	for name, count := range counts {
		out = append(out, MuscleGroupShare{Name: name, Count: count})
	}
	slices.SortFunc(out, func(a, b MuscleGroupShare) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for i := range out {
		out[i].Color = MuscleGroupPalette[i%len(MuscleGroupPalette)]
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// RecordOrder selects how personal records are sorted.
type RecordOrder int

const (
	// OrderByDate lists the most recently achieved record first.
	OrderByDate RecordOrder = iota
	// OrderByOneRepMax lists the heaviest estimate first.
	OrderByOneRepMax
)

func (o RecordOrder) String() string {
	if o == OrderByOneRepMax {
		return "one_rep_max"
	}
	return "date"
}

// ParseRecordOrder maps an API value onto a RecordOrder. An empty value selects OrderByDate.
func ParseRecordOrder(value string) (RecordOrder, error) {
	switch value {
	case "", "date":
		return OrderByDate, nil
	case "one_rep_max", "1rm":
		return OrderByOneRepMax, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, value)
}

// PersonalRecord is the best estimated single for an exercise.
type PersonalRecord struct {
	ExerciseName string    `json:"exercise_name"`
	MuscleGroup  string    `json:"muscle_group,omitempty"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	OneRepMax    float64   `json:"one_rep_max"`
	Date         time.Time `json:"date"`
	WorkoutID    string    `json:"workout_id"`
}

// RecordOptions tunes PersonalRecords. The zero value uses Brzycki and OrderByDate.
type RecordOptions struct {
	Formula Formula
	Order   RecordOrder
}

// PersonalRecords keeps the highest 1RM per exercise. Only sets with a positive weight
// and reps within [1, MaxReliableReps] are considered. On a tie the earlier set wins.
func PersonalRecords(workouts []WorkoutRecord, opts RecordOptions) []PersonalRecord {
	best := make(map[string]PersonalRecord)
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			name := strings.TrimSpace(ex.ExerciseName)
			if name == "" {
				continue
			}
			for _, set := range ex.Sets {
				if set.Weight == nil || set.Reps == nil {
					continue
				}
				weight, reps := *set.Weight, *set.Reps
				if weight <= 0 || reps < 1 || reps > MaxReliableReps {
					continue
				}
				estimate, err := EstimateOneRepMax(weight, reps, opts.Formula)
				if err != nil {
					continue
				}
				candidate := PersonalRecord{
					ExerciseName: name,
					MuscleGroup:  ex.MuscleGroup,
					Weight:       weight,
					Reps:         reps,
					OneRepMax:    estimate,
					Date:         Day(w.Date),
					WorkoutID:    w.ID,
				}
				current, ok := best[name]
				if !ok || beats(candidate, current) {
					best[name] = candidate
				}
			}
		}
	}

	out := make([]PersonalRecord, 0, len(best))
	for _, pr := range best {
		out = append(out, pr)
	}
	slices.SortFunc(out, func(a, b PersonalRecord) int {
		var c int
		switch opts.Order {
		case OrderByOneRepMax:
			c = cmp.Compare(b.OneRepMax, a.OneRepMax)
		default:
			c = b.Date.Compare(a.Date)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ExerciseName, b.ExerciseName)
	})
	return out
}

func beats(candidate, current PersonalRecord) bool {
	if candidate.OneRepMax != current.OneRepMax {
		return candidate.OneRepMax > current.OneRepMax
	}
	return candidate.Date.Before(current.Date)
}
