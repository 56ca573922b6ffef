package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/progress/internal/analytics"
	"example.com/progress/internal/cache"
	"example.com/progress/internal/observability"
)

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source used as "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCache stores built summaries until the user's records change.
func WithCache(c cache.SummaryCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger overrides the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service orchestrates fetch, aggregation and chart shaping for one user at a time.
type Service struct {
	source DataSource
	cache  cache.SummaryCache
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewService constructs a Service.
func NewService(source DataSource, opts ...Option) *Service {
	s := &Service{
		source: source,
		cache:  cache.Noop{},
		now:    time.Now,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cached serves key from the summary cache or builds and stores it. Keys carry the
// calendar day so date-relative summaries roll over at midnight.
func cached[T any](ctx context.Context, s *Service, subject Subject, name, key string, build func(ctx context.Context, now time.Time) (T, error)) (T, error) {
	var out T
	if err := subject.validate(); err != nil {
		return out, err
	}

	now := s.now()
	fullKey := fmt.Sprintf("%s:%s:%s", name, analytics.Day(now).Format(time.DateOnly), key)
	// Resolved before build so an invalidation during the build orphans this result.
	slot := s.cache.Lookup(subject.TenantID, subject.UserID, fullKey)
	if s.cache.Get(slot, &out) {
		return out, nil
	}

	started := time.Now()
	out, err := build(ctx, now)
	observability.ObserveSummary(name, started, err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"summary":   name,
			"tenant_id": subject.TenantID,
			"user_id":   subject.UserID,
		}).Error("failed to build progress summary")
		return out, err
	}
	observability.RecordDataSourceRead(now)
	s.cache.Set(slot, out)
	return out, nil
}

// Dashboard builds the streak, weekly and monthly summary shown on the landing page.
func (s *Service) Dashboard(ctx context.Context, subject Subject) (Dashboard, error) {
	return cached(ctx, s, subject, "dashboard", "", func(ctx context.Context, now time.Time) (Dashboard, error) {
		from, _, err := analytics.Range(now, analytics.WindowAllTime)
		if err != nil {
			return Dashboard{}, err
		}
		workouts, err := s.source.ListWorkouts(ctx, subject.TenantID, subject.UserID, from, now)
		if err != nil {
			return Dashboard{}, fmt.Errorf("list workouts: %w", err)
		}

		month := analytics.Buckets(now, now, analytics.BucketMonth, 1)
		checkIns, err := s.source.ListCheckIns(ctx, subject.TenantID, subject.UserID, month[0].Start, now)
		if err != nil {
			return Dashboard{}, fmt.Errorf("list check-ins: %w", err)
		}
		goals, err := s.source.ListGoals(ctx, subject.TenantID, subject.UserID)
		if err != nil {
			return Dashboard{}, fmt.Errorf("list goals: %w", err)
		}
		txs, err := s.source.ListPointsTransactions(ctx, subject.TenantID, subject.UserID)
		if err != nil {
			return Dashboard{}, fmt.Errorf("list points transactions: %w", err)
		}

		dates := analytics.WorkoutDates(workouts)
		week := analytics.Buckets(now, now, analytics.BucketWeek, 1)
		days := analytics.Buckets(now, now, analytics.BucketDay, 7)

		d := Dashboard{
			CurrentStreak:     analytics.ComputeStreak(dates, now),
			LongestStreak:     analytics.LongestStreak(dates),
			TotalWorkouts:     len(workouts),
			WorkoutsThisWeek:  analytics.WorkoutCounts(workouts, week)[0].Count,
			WorkoutsThisMonth: analytics.WorkoutCounts(workouts, month)[0].Count,
			CheckInsThisMonth: analytics.CheckInCounts(checkIns, month)[0].Count,
			WeeklyActivity:    analytics.CountsChart(analytics.WorkoutCounts(workouts, days)),
			Goals:             analytics.SummarizeGoals(goals),
			Points:            analytics.SummarizePoints(txs),
			GeneratedAt:       now.UTC(),
		}
		if last, ok := lastWorkout(workouts, now); ok {
			d.LastWorkoutAt = &last
		}
		return d, nil
	})
}

// WorkoutActivity charts workout counts and durations over the last count buckets.
func (s *Service) WorkoutActivity(ctx context.Context, subject Subject, size analytics.BucketSize, count int) (WorkoutActivity, error) {
	count, err := bucketCount(size, count)
	if err != nil {
		return WorkoutActivity{}, err
	}
	key := fmt.Sprintf("%s:%d", size, count)
	return cached(ctx, s, subject, "workouts", key, func(ctx context.Context, now time.Time) (WorkoutActivity, error) {
		buckets := analytics.Buckets(now, now, size, count)
		if len(buckets) == 0 {
			return WorkoutActivity{}, fmt.Errorf("%w: %q", analytics.ErrUnknownBucket, size)
		}
		workouts, err := s.source.ListWorkouts(ctx, subject.TenantID, subject.UserID, buckets[0].Start, now)
		if err != nil {
			return WorkoutActivity{}, fmt.Errorf("list workouts: %w", err)
		}
		counts := analytics.WorkoutCounts(workouts, buckets)
		volume := analytics.WorkoutVolume(workouts, buckets)
		return WorkoutActivity{
			Bucket:      size,
			Counts:      counts,
			Chart:       analytics.CountsChart(counts),
			Volume:      volume,
			VolumeChart: analytics.VolumeChart(volume),
		}, nil
	})
}

// Strength lists personal records inside the window.
func (s *Service) Strength(ctx context.Context, subject Subject, q StrengthQuery) (Strength, error) {
	key := fmt.Sprintf("%s:%s:%s", q.Window, q.Order, q.Formula)
	return cached(ctx, s, subject, "strength", key, func(ctx context.Context, now time.Time) (Strength, error) {
		from, to, err := analytics.Range(now, q.Window)
		if err != nil {
			return Strength{}, err
		}
		workouts, err := s.source.ListWorkouts(ctx, subject.TenantID, subject.UserID, from, to)
		if err != nil {
			return Strength{}, fmt.Errorf("list workouts: %w", err)
		}
		return Strength{
			Window:  q.Window,
			Formula: q.Formula.String(),
			Records: analytics.PersonalRecords(workouts, analytics.RecordOptions{Formula: q.Formula, Order: q.Order}),
		}, nil
	})
}

// MuscleGroups charts the top muscle groups trained inside the window.
func (s *Service) MuscleGroups(ctx context.Context, subject Subject, window analytics.Window, top int) (MuscleGroups, error) {
	return cached(ctx, s, subject, "muscle-groups", fmt.Sprintf("%s:%d", window, top), func(ctx context.Context, now time.Time) (MuscleGroups, error) {
		from, to, err := analytics.Range(now, window)
		if err != nil {
			return MuscleGroups{}, err
		}
		workouts, err := s.source.ListWorkouts(ctx, subject.TenantID, subject.UserID, from, to)
		if err != nil {
			return MuscleGroups{}, fmt.Errorf("list workouts: %w", err)
		}
		shares := analytics.MuscleGroupDistribution(workouts, top)
		return MuscleGroups{Window: window, Shares: shares, Chart: analytics.DistributionChart(shares)}, nil
	})
}

// MeasurementProgress charts one metric and its change from the previous reading.
func (s *Service) MeasurementProgress(ctx context.Context, subject Subject, metric analytics.Metric, window analytics.Window) (MeasurementProgress, error) {
	return cached(ctx, s, subject, "measurements", fmt.Sprintf("%s:%s", metric, window), func(ctx context.Context, now time.Time) (MeasurementProgress, error) {
		from, to, err := analytics.Range(now, window)
		if err != nil {
			return MeasurementProgress{}, err
		}
		records, err := s.source.ListMeasurements(ctx, subject.TenantID, subject.UserID, from, to)
		if err != nil {
			return MeasurementProgress{}, fmt.Errorf("list measurements: %w", err)
		}
		points := analytics.MeasurementSeries(records, metric, from, to)
		out := MeasurementProgress{
			Metric:        metric,
			Window:        window,
			Points:        points,
			Chart:         analytics.PointsChart(points),
			ChangePercent: analytics.ChangeFromPrevious(points),
		}
		if latest, ok := analytics.Latest(points); ok {
			out.Latest = &latest
		}
		return out, nil
	})
}

// BloodPressure charts systolic and diastolic readings inside the window.
func (s *Service) BloodPressure(ctx context.Context, subject Subject, window analytics.Window) (BloodPressure, error) {
	return cached(ctx, s, subject, "blood-pressure", string(window), func(ctx context.Context, now time.Time) (BloodPressure, error) {
		from, to, err := analytics.Range(now, window)
		if err != nil {
			return BloodPressure{}, err
		}
		records, err := s.source.ListMeasurements(ctx, subject.TenantID, subject.UserID, from, to)
		if err != nil {
			return BloodPressure{}, fmt.Errorf("list measurements: %w", err)
		}
		return BloodPressure{Window: window, Chart: analytics.BloodPressureChart(records, from, to)}, nil
	})
}

// Points summarises the loyalty ledger and nets it over the last count buckets.
func (s *Service) Points(ctx context.Context, subject Subject, size analytics.BucketSize, count int) (Points, error) {
	count, err := bucketCount(size, count)
	if err != nil {
		return Points{}, err
	}
	return cached(ctx, s, subject, "points", fmt.Sprintf("%s:%d", size, count), func(ctx context.Context, now time.Time) (Points, error) {
		txs, err := s.source.ListPointsTransactions(ctx, subject.TenantID, subject.UserID)
		if err != nil {
			return Points{}, fmt.Errorf("list points transactions: %w", err)
		}
		buckets := analytics.PointsByBucket(txs, analytics.Buckets(now, now, size, count))
		return Points{
			Summary: analytics.SummarizePoints(txs),
			Buckets: buckets,
			Chart:   analytics.LedgerChart(buckets),
		}, nil
	})
}

// bucketCount applies the per-size default and bounds the requested count.
func bucketCount(size analytics.BucketSize, count int) (int, error) {
	if count < 0 || count > MaxBuckets {
		return 0, fmt.Errorf("%w: %d", ErrBucketCount, count)
	}
	if count > 0 {
		return count, nil
	}
	switch size {
	case analytics.BucketWeek:
		return 8, nil
	case analytics.BucketMonth:
		return 6, nil
	default:
		return 7, nil
	}
}

func lastWorkout(workouts []analytics.WorkoutRecord, now time.Time) (time.Time, bool) {
	var last time.Time
	today := analytics.Day(now)
	for _, w := range workouts {
		if analytics.Day(w.Date).After(today) {
			continue
		}
		if w.Date.After(last) {
			last = w.Date
		}
	}
	return last, !last.IsZero()
}
