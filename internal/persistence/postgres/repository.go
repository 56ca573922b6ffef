package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progress/internal/analytics"
)

// Repository reads fitness records from Postgres. Every query runs in a transaction
// scoped to the tenant so that row-level security policies apply.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// measurementColumns maps metric names onto measurement columns in scan order.
var measurementColumns = []analytics.Metric{
	analytics.MetricWeight,
	analytics.MetricBodyFatPercentage,
	analytics.MetricMuscleMass,
	analytics.MetricChest,
	analytics.MetricWaist,
	analytics.MetricHips,
	analytics.MetricBiceps,
	analytics.MetricThighs,
	analytics.MetricBloodPressureSystolic,
	analytics.MetricBloodPressureDiastolic,
	analytics.MetricHeartRate,
}

func (r *Repository) withTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListWorkouts returns workouts between from and to with their exercises and sets.
func (r *Repository) ListWorkouts(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.WorkoutRecord, error) {
	const query = `SELECT w.id::text, w.workout_date, w.duration_minutes,
            e.id::text, e.exercise_name, e.muscle_group,
            s.id::text, s.weight, s.reps
        FROM workouts w
        LEFT JOIN workout_exercises e ON e.workout_id = w.id
        LEFT JOIN exercise_sets s ON s.workout_exercise_id = e.id
        WHERE w.tenant_id=$1 AND w.user_id=$2 AND w.workout_date BETWEEN $3 AND $4
        ORDER BY w.workout_date DESC, w.id, e.position, e.id, s.set_number, s.id`

	var out []analytics.WorkoutRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID, dateOnly(from), dateOnly(to))
		if err != nil {
			return err
		}
		defer rows.Close()

		var lastExerciseID string
		for rows.Next() {
			var (
				workoutID    string
				workoutDate  time.Time
				duration     *int
				exerciseID   *string
				exerciseName *string
				muscleGroup  *string
				setID        *string
				weight       *float64
				reps         *int
			)
			if err := rows.Scan(&workoutID, &workoutDate, &duration, &exerciseID, &exerciseName, &muscleGroup, &setID, &weight, &reps); err != nil {
				return err
			}

			if len(out) == 0 || out[len(out)-1].ID != workoutID {
				out = append(out, analytics.WorkoutRecord{ID: workoutID, Date: workoutDate, DurationMinutes: duration})
				lastExerciseID = ""
			}
			w := &out[len(out)-1]
			if exerciseID == nil {
				continue
			}
			if *exerciseID != lastExerciseID {
				entry := analytics.ExerciseEntry{ExerciseName: deref(exerciseName)}
				entry.MuscleGroup = deref(muscleGroup)
				w.Exercises = append(w.Exercises, entry)
				lastExerciseID = *exerciseID
			}
			if setID != nil {
				e := &w.Exercises[len(w.Exercises)-1]
				e.Sets = append(e.Sets, analytics.SetEntry{Weight: weight, Reps: reps})
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMeasurements returns measurements between from and to; NULL columns are left out of Values.
func (r *Repository) ListMeasurements(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.MeasurementRecord, error) {
	const query = `SELECT id::text, measured_on, weight, body_fat_percentage, muscle_mass, chest, waist, hips,
            biceps, thighs, blood_pressure_systolic, blood_pressure_diastolic, heart_rate
        FROM measurements
        WHERE tenant_id=$1 AND user_id=$2 AND measured_on BETWEEN $3 AND $4
        ORDER BY measured_on DESC, id`

	var out []analytics.MeasurementRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID, dateOnly(from), dateOnly(to))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec analytics.MeasurementRecord
			values := make([]*float64, len(measurementColumns))
			dest := []any{&rec.ID, &rec.Date}
			for i := range values {
				dest = append(dest, &values[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			rec.Values = make(map[analytics.Metric]float64, len(values))
			for i, v := range values {
				if v != nil {
					rec.Values[measurementColumns[i]] = *v
				}
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListCheckIns returns facility check-ins between from and to.
func (r *Repository) ListCheckIns(ctx context.Context, tenantID, userID string, from, to time.Time) ([]analytics.CheckInRecord, error) {
	const query = `SELECT id::text, checked_in_at, facility_id
        FROM check_ins
        WHERE tenant_id=$1 AND user_id=$2 AND checked_in_at >= $3 AND checked_in_at < $4
        ORDER BY checked_in_at DESC`

	var out []analytics.CheckInRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID, dateOnly(from), dateOnly(to).AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c analytics.CheckInRecord
			if err := rows.Scan(&c.ID, &c.Date, &c.FacilityID); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGoals returns every goal for the user.
func (r *Repository) ListGoals(ctx context.Context, tenantID, userID string) ([]analytics.GoalRecord, error) {
	const query = `SELECT id::text, title, status, current_value, target_value, COALESCE(unit, '')
        FROM goals
        WHERE tenant_id=$1 AND user_id=$2
        ORDER BY created_at, id`

	var out []analytics.GoalRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				g      analytics.GoalRecord
				status string
			)
			if err := rows.Scan(&g.ID, &g.Title, &status, &g.CurrentValue, &g.TargetValue, &g.Unit); err != nil {
				return err
			}
			g.Status = analytics.GoalStatus(status)
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPointsTransactions returns the user's full points ledger.
func (r *Repository) ListPointsTransactions(ctx context.Context, tenantID, userID string) ([]analytics.PointsTransaction, error) {
	const query = `SELECT id::text, occurred_at, points, COALESCE(reason, '')
        FROM points_transactions
        WHERE tenant_id=$1 AND user_id=$2
        ORDER BY occurred_at DESC`

	var out []analytics.PointsTransaction
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p analytics.PointsTransaction
			if err := rows.Scan(&p.ID, &p.Date, &p.Points, &p.Reason); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ping verifies connectivity for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return analytics.Day(t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
