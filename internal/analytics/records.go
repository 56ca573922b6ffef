// Package analytics derives progress statistics from already-fetched fitness records.
//
// Every function in this package is pure: inputs are never mutated and no state is
// kept between calls, so callers may use it concurrently without synchronisation.
package analytics

import "time"

// WorkoutRecord is a logged workout. Date carries calendar-day semantics only.
type WorkoutRecord struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Exercises       []ExerciseEntry `json:"exercises"`
}

// ExerciseEntry is one exercise performed within a workout.
type ExerciseEntry struct {
	ExerciseName string     `json:"exercise_name"`
	MuscleGroup  string     `json:"muscle_group,omitempty"`
	Sets         []SetEntry `json:"sets"`
}

// SetEntry is a single set. Either field may be absent.
type SetEntry struct {
	Weight *float64 `json:"weight,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
}

// Metric names a numeric body measurement.
type Metric string

const (
	MetricWeight                 Metric = "weight"
	MetricBodyFatPercentage      Metric = "body_fat_percentage"
	MetricMuscleMass             Metric = "muscle_mass"
	MetricChest                  Metric = "chest"
	MetricWaist                  Metric = "waist"
	MetricHips                   Metric = "hips"
	MetricBiceps                 Metric = "biceps"
	MetricThighs                 Metric = "thighs"
	MetricBloodPressureSystolic  Metric = "blood_pressure_systolic"
	MetricBloodPressureDiastolic Metric = "blood_pressure_diastolic"
	MetricHeartRate              Metric = "heart_rate"
)

// Metrics lists every known metric in display order.
var Metrics = []Metric{
	MetricWeight,
	MetricBodyFatPercentage,
	MetricMuscleMass,
	MetricChest,
	MetricWaist,
	MetricHips,
	MetricBiceps,
	MetricThighs,
	MetricBloodPressureSystolic,
	MetricBloodPressureDiastolic,
	MetricHeartRate,
}

// ParseMetric validates a metric name.
func ParseMetric(value string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == value {
			return m, nil
		}
	}
	return "", ErrUnknownMetric
}

// MeasurementRecord is a body measurement entry. A metric missing from Values is absent.
type MeasurementRecord struct {
	ID     string             `json:"id"`
	Date   time.Time          `json:"date"`
	Values map[Metric]float64 `json:"values"`
}

// Value returns the recorded value for metric, if present.
func (m MeasurementRecord) Value(metric Metric) (float64, bool) {
	v, ok := m.Values[metric]
	return v, ok
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// GoalRecord is a user goal.
type GoalRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       GoalStatus `json:"status"`
	CurrentValue float64    `json:"current_value"`
	TargetValue  *float64   `json:"target_value,omitempty"`
	Unit         string     `json:"unit,omitempty"`
}

// CheckInRecord is a facility visit.
type CheckInRecord struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	FacilityID string    `json:"facility_id"`
}

// PointsTransaction is a loyalty ledger entry. Negative points are redemptions.
type PointsTransaction struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Points int       `json:"points"`
	Reason string    `json:"reason,omitempty"`
}
