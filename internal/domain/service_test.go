package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/progress/internal/analytics"
	"example.com/progress/internal/cache"
	"example.com/progress/internal/persistence/memory"
)

var (
	subject = Subject{TenantID: "tenant-1", UserID: "user-1"}
	now     = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func seededRepo() *memory.Repository {
	repo := memory.NewRepository()
	bench := analytics.ExerciseEntry{
		ExerciseName: "Bench Press",
		MuscleGroup:  "Chest",
		Sets:         []analytics.SetEntry{{Weight: floatPtr(100), Reps: intPtr(5)}},
	}
	row := analytics.ExerciseEntry{
		ExerciseName: "Barbell Row",
		MuscleGroup:  "Back",
		Sets:         []analytics.SetEntry{{Weight: floatPtr(80), Reps: intPtr(8)}},
	}
	for _, d := range []int{12, 11, 10, 7} {
		repo.AddWorkout(subject.TenantID, subject.UserID, analytics.WorkoutRecord{
			Date:            day(time.June, d),
			DurationMinutes: intPtr(45),
			Exercises:       []analytics.ExerciseEntry{bench, row},
		})
	}
	repo.AddWorkout(subject.TenantID, subject.UserID, analytics.WorkoutRecord{Date: day(time.May, 20), Exercises: []analytics.ExerciseEntry{bench}})
	repo.AddWorkout(subject.TenantID, "someone-else", analytics.WorkoutRecord{Date: day(time.June, 12)})

	repo.AddCheckIn(subject.TenantID, subject.UserID, analytics.CheckInRecord{Date: day(time.June, 3), FacilityID: "gym"})
	repo.AddCheckIn(subject.TenantID, subject.UserID, analytics.CheckInRecord{Date: day(time.May, 30), FacilityID: "gym"})

	repo.AddGoal(subject.TenantID, subject.UserID, analytics.GoalRecord{Status: analytics.GoalActive, CurrentValue: 50, TargetValue: floatPtr(100)})
	repo.AddGoal(subject.TenantID, subject.UserID, analytics.GoalRecord{Status: analytics.GoalCompleted})

	repo.AddPointsTransaction(subject.TenantID, subject.UserID, analytics.PointsTransaction{Date: day(time.June, 10), Points: 100})
	repo.AddPointsTransaction(subject.TenantID, subject.UserID, analytics.PointsTransaction{Date: day(time.June, 11), Points: -40})

	for _, m := range []struct {
		d            int
		weight       float64
		sys, dia     float64
		hasDiastolic bool
	}{
		{d: 1, weight: 82, sys: 125, dia: 82, hasDiastolic: true},
		{d: 8, weight: 80, sys: 120},
		{d: 11, weight: 79.2, sys: 118, dia: 78, hasDiastolic: true},
	} {
		values := map[analytics.Metric]float64{analytics.MetricWeight: m.weight, analytics.MetricBloodPressureSystolic: m.sys}
		if m.hasDiastolic {
			values[analytics.MetricBloodPressureDiastolic] = m.dia
		}
		repo.AddMeasurement(subject.TenantID, subject.UserID, analytics.MeasurementRecord{Date: day(time.June, m.d), Values: values})
	}
	return repo
}

func newService(source DataSource, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(source, opts...)
}

func TestDashboard(t *testing.T) {
	svc := newService(seededRepo())

	d, err := svc.Dashboard(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, 3, d.CurrentStreak)
	assert.Equal(t, 3, d.LongestStreak)
	assert.Equal(t, 5, d.TotalWorkouts)
	assert.Equal(t, 4, d.WorkoutsThisWeek)
	assert.Equal(t, 4, d.WorkoutsThisMonth)
	assert.Equal(t, 1, d.CheckInsThisMonth)
	require.NotNil(t, d.LastWorkoutAt)
	assert.Equal(t, day(time.June, 12), *d.LastWorkoutAt)
	assert.Equal(t, []string{"6/6", "6/7", "6/8", "6/9", "6/10", "6/11", "6/12"}, d.WeeklyActivity.Labels)
	assert.Equal(t, []float64{0, 1, 0, 0, 1, 1, 1}, d.WeeklyActivity.Series)
	assert.Equal(t, 2, d.Goals.Total)
	assert.Equal(t, analytics.PointsSummary{Balance: 60, Earned: 100, Redeemed: 40}, d.Points)
}

func TestDashboardEmptyUser(t *testing.T) {
	svc := newService(memory.NewRepository())

	d, err := svc.Dashboard(context.Background(), Subject{TenantID: "t", UserID: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, d.CurrentStreak)
	assert.Nil(t, d.LastWorkoutAt)
	assert.Len(t, d.WeeklyActivity.Labels, 7)
}

func TestRequiresSubject(t *testing.T) {
	svc := newService(memory.NewRepository())

	_, err := svc.Dashboard(context.Background(), Subject{TenantID: "t"})
	require.ErrorIs(t, err, ErrMissingSubject)
}

func TestWorkoutActivity(t *testing.T) {
	svc := newService(seededRepo())

	a, err := svc.WorkoutActivity(context.Background(), subject, analytics.BucketWeek, 0)
	require.NoError(t, err)
	require.Len(t, a.Counts, 8)
	assert.Equal(t, 4, a.Counts[7].Count)
	assert.Equal(t, len(a.Chart.Labels), len(a.Chart.Series))
	assert.Equal(t, 180, a.Volume[7].TotalMinutes)

	_, err = svc.WorkoutActivity(context.Background(), subject, analytics.BucketDay, MaxBuckets+1)
	require.ErrorIs(t, err, ErrBucketCount)
}

func TestStrength(t *testing.T) {
	svc := newService(seededRepo())

	s, err := svc.Strength(context.Background(), subject, StrengthQuery{Window: analytics.WindowMonth, Order: analytics.OrderByOneRepMax})
	require.NoError(t, err)
	assert.Equal(t, "brzycki", s.Formula)
	require.Len(t, s.Records, 2)
	assert.Equal(t, "Bench Press", s.Records[0].ExerciseName)
	assert.Equal(t, 112.5, s.Records[0].OneRepMax)
	assert.Equal(t, day(time.May, 20), s.Records[0].Date)

	_, err = svc.Strength(context.Background(), subject, StrengthQuery{Window: "fortnight"})
	require.ErrorIs(t, err, analytics.ErrUnknownWindow)
}

func TestMuscleGroups(t *testing.T) {
	svc := newService(seededRepo())

	m, err := svc.MuscleGroups(context.Background(), subject, analytics.WindowWeek, DefaultTopMuscleGroups)
	require.NoError(t, err)
	require.Len(t, m.Shares, 2)
	assert.Equal(t, "Back", m.Shares[0].Name)
	assert.Equal(t, 4, m.Shares[0].Count)
	assert.Equal(t, []string{"Back", "Chest"}, m.Chart.Labels)
}

func TestMeasurementProgress(t *testing.T) {
	svc := newService(seededRepo())

	m, err := svc.MeasurementProgress(context.Background(), subject, analytics.MetricWeight, analytics.WindowMonth)
	require.NoError(t, err)
	require.Len(t, m.Points, 3)
	require.NotNil(t, m.Latest)
	assert.Equal(t, 79.2, m.Latest.Value)
	require.NotNil(t, m.ChangePercent)
	assert.InDelta(t, -1.0, *m.ChangePercent, 1e-9)

	empty, err := svc.MeasurementProgress(context.Background(), subject, analytics.MetricHeartRate, analytics.WindowMonth)
	require.NoError(t, err)
	assert.True(t, empty.Chart.Empty())
	assert.Nil(t, empty.ChangePercent)
}

func TestBloodPressure(t *testing.T) {
	svc := newService(seededRepo())

	bp, err := svc.BloodPressure(context.Background(), subject, analytics.WindowMonth)
	require.NoError(t, err)
	assert.Equal(t, []string{"6/1", "6/11"}, bp.Chart.Labels)
}

func TestPoints(t *testing.T) {
	svc := newService(seededRepo())

	p, err := svc.Points(context.Background(), subject, analytics.BucketDay, 3)
	require.NoError(t, err)
	assert.Equal(t, 60, p.Summary.Balance)
	assert.Equal(t, []string{"6/10", "6/11", "6/12"}, p.Chart.Labels)
	assert.Equal(t, []float64{100, -40, 0}, p.Chart.Series)
}

type countingSource struct {
	DataSource
	workoutCalls int
	fail         error
	afterList    func()
}

func (c *countingSource) ListWorkouts(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.WorkoutRecord, error) {
	c.workoutCalls++
	if c.fail != nil {
		return nil, c.fail
	}
	out, err := c.DataSource.ListWorkouts(ctx, tenantID, userID, from, to)
	if c.afterList != nil {
		c.afterList()
		c.afterList = nil
	}
	return out, err
}

func TestCachedSummariesUntilInvalidated(t *testing.T) {
	source := &countingSource{DataSource: seededRepo()}
	summaries := cache.NewFreecache(1, time.Minute, nil)
	svc := newService(source, WithCache(summaries))

	first, err := svc.Strength(context.Background(), subject, StrengthQuery{Window: analytics.WindowMonth})
	require.NoError(t, err)
	second, err := svc.Strength(context.Background(), subject, StrengthQuery{Window: analytics.WindowMonth})
	require.NoError(t, err)
	assert.Equal(t, 1, source.workoutCalls)
	assert.Equal(t, first, second)

	require.NoError(t, summaries.InvalidateUser(context.Background(), subject.TenantID, subject.UserID))
	_, err = svc.Strength(context.Background(), subject, StrengthQuery{Window: analytics.WindowMonth})
	require.NoError(t, err)
	assert.Equal(t, 2, source.workoutCalls)
}

func TestInvalidationDuringBuildIsNotLost(t *testing.T) {
	repo := seededRepo()
	summaries := cache.NewFreecache(1, time.Minute, nil)
	source := &countingSource{DataSource: repo}
	source.afterList = func() {
		repo.AddWorkout(subject.TenantID, subject.UserID, analytics.WorkoutRecord{Date: day(time.June, 12)})
		require.NoError(t, summaries.InvalidateUser(context.Background(), subject.TenantID, subject.UserID))
	}
	svc := newService(source, WithCache(summaries))

	first, err := svc.Dashboard(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalWorkouts)

	second, err := svc.Dashboard(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, 6, second.TotalWorkouts)
}

func TestDataSourceErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newService(&countingSource{DataSource: memory.NewRepository(), fail: boom})

	_, err := svc.MuscleGroups(context.Background(), subject, analytics.WindowMonth, 0)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "list workouts")
}
