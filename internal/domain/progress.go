// Package domain turns a user's fitness records into progress summaries.
package domain

import (
	"context"
	"errors"
	"time"

	"example.com/progress/internal/analytics"
)

var (
	// ErrMissingSubject is returned when a request does not name a tenant and user.
	ErrMissingSubject = errors.New("tenant and user are required")
	// ErrBucketCount is returned when a chart asks for more buckets than MaxBuckets.
	ErrBucketCount = errors.New("bucket count out of range")
)

// MaxBuckets bounds the number of buckets a single chart may request.
const MaxBuckets = 366

// DefaultTopMuscleGroups is the number of muscle groups charted when the caller does not choose.
const DefaultTopMuscleGroups = 6

// DataSource fetches one user's records. Date bounds are inclusive calendar days.
type DataSource interface {
	ListWorkouts(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.WorkoutRecord, error)
	ListMeasurements(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.MeasurementRecord, error)
	ListCheckIns(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.CheckInRecord, error)
	ListGoals(ctx context.Context, tenantID, userID string) ([]analytics.GoalRecord, error)
	ListPointsTransactions(ctx context.Context, tenantID, userID string) ([]analytics.PointsTransaction, error)
}

// Subject identifies whose records a summary is built from.
type Subject struct {
	TenantID string
	UserID   string
}

func (s Subject) validate() error {
	if s.TenantID == "" || s.UserID == "" {
		return ErrMissingSubject
	}
	return nil
}

// Dashboard is the landing-page summary.
type Dashboard struct {
	CurrentStreak     int                     `json:"current_streak"`
	LongestStreak     int                     `json:"longest_streak"`
	TotalWorkouts     int                     `json:"total_workouts"`
	WorkoutsThisWeek  int                     `json:"workouts_this_week"`
	WorkoutsThisMonth int                     `json:"workouts_this_month"`
	CheckInsThisMonth int                     `json:"check_ins_this_month"`
	LastWorkoutAt     *time.Time              `json:"last_workout_at,omitempty"`
	WeeklyActivity    analytics.ChartSeries   `json:"weekly_activity"`
	Goals             analytics.GoalSummary   `json:"goals"`
	Points            analytics.PointsSummary `json:"points"`
	GeneratedAt       time.Time               `json:"generated_at"`
}

// WorkoutActivity is workout frequency and duration per bucket.
type WorkoutActivity struct {
	Bucket      analytics.BucketSize     `json:"bucket"`
	Counts      []analytics.BucketCount  `json:"counts"`
	Chart       analytics.ChartSeries    `json:"chart"`
	Volume      []analytics.BucketVolume `json:"volume"`
	VolumeChart analytics.MultiSeries    `json:"volume_chart"`
}

// StrengthQuery selects the window and ranking of personal records.
type StrengthQuery struct {
	Window  analytics.Window
	Order   analytics.RecordOrder
	Formula analytics.Formula
}

// Strength lists the best estimated lift per exercise.
type Strength struct {
	Window  analytics.Window           `json:"window"`
	Formula string                     `json:"formula"`
	Records []analytics.PersonalRecord `json:"records"`
}

// MuscleGroups is the training distribution across muscle groups.
type MuscleGroups struct {
	Window analytics.Window             `json:"window"`
	Shares []analytics.MuscleGroupShare `json:"shares"`
	Chart  analytics.ChartSeries        `json:"chart"`
}

// MeasurementProgress is one body metric over time.
type MeasurementProgress struct {
	Metric        analytics.Metric      `json:"metric"`
	Window        analytics.Window      `json:"window"`
	Points        []analytics.Point     `json:"points"`
	Chart         analytics.ChartSeries `json:"chart"`
	Latest        *analytics.Point      `json:"latest,omitempty"`
	ChangePercent *float64              `json:"change_percent,omitempty"`
}

// BloodPressure pairs systolic and diastolic readings.
type BloodPressure struct {
	Window analytics.Window      `json:"window"`
	Chart  analytics.MultiSeries `json:"chart"`
}

// Points is the loyalty ledger summary with per-bucket net change.
type Points struct {
	Summary analytics.PointsSummary  `json:"summary"`
	Buckets []analytics.BucketPoints `json:"buckets"`
	Chart   analytics.ChartSeries    `json:"chart"`
}
