//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/progress/internal/analytics"
)

func TestRepositoryReadsRecordsPerTenant(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("fitness"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	seed(t, ctx, pool, tenantID, userID)

	repo := NewRepository(pool)
	require.NoError(t, repo.Ping(ctx))

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)

	workouts, err := repo.ListWorkouts(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, 12, workouts[0].Date.Day())
	require.Len(t, workouts[0].Exercises, 2)
	assert.Equal(t, "Bench Press", workouts[0].Exercises[0].ExerciseName)
	assert.Equal(t, "Chest", workouts[0].Exercises[0].MuscleGroup)
	require.Len(t, workouts[0].Exercises[0].Sets, 2)
	assert.Equal(t, 100.0, *workouts[0].Exercises[0].Sets[0].Weight)
	assert.Equal(t, 5, *workouts[0].Exercises[0].Sets[0].Reps)
	assert.Empty(t, workouts[0].Exercises[1].MuscleGroup)
	assert.Empty(t, workouts[0].Exercises[1].Sets)
	assert.Nil(t, workouts[1].DurationMinutes)
	assert.Empty(t, workouts[1].Exercises)

	measurements, err := repo.ListMeasurements(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, measurements, 1)
	weight, ok := measurements[0].Value(analytics.MetricWeight)
	require.True(t, ok)
	assert.Equal(t, 81.5, weight)
	_, ok = measurements[0].Value(analytics.MetricHeartRate)
	assert.False(t, ok)

	checkIns, err := repo.ListCheckIns(ctx, tenantID, userID, from, to)
	require.NoError(t, err)
	require.Len(t, checkIns, 1)
	assert.Equal(t, "gym-7", checkIns[0].FacilityID)

	goals, err := repo.ListGoals(ctx, tenantID, userID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, analytics.GoalActive, goals[0].Status)
	require.NotNil(t, goals[0].TargetValue)

	txs, err := repo.ListPointsTransactions(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, analytics.PointsSummary{Balance: 70, Earned: 100, Redeemed: 30}, analytics.SummarizePoints(txs))

	other, err := repo.ListWorkouts(ctx, uuid.NewString(), userID, from, to)
	require.NoError(t, err)
	assert.Empty(t, other, "tenant scoping should hide other tenants' rows")
}

func seed(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tenantID, userID string) {
	t.Helper()

	var recent, older, bench, plank string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO workouts (tenant_id, user_id, workout_date, duration_minutes) VALUES ($1,$2,'2024-06-12',45) RETURNING id::text`,
		tenantID, userID).Scan(&recent))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO workouts (tenant_id, user_id, workout_date) VALUES ($1,$2,'2024-06-03') RETURNING id::text`,
		tenantID, userID).Scan(&older))
	_, err := pool.Exec(ctx,
		`INSERT INTO workouts (tenant_id, user_id, workout_date) VALUES ($1,$2,'2024-05-03')`, tenantID, userID)
	require.NoError(t, err)

	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO workout_exercises (tenant_id, workout_id, exercise_name, muscle_group, position) VALUES ($1,$2,'Bench Press','Chest',0) RETURNING id::text`,
		tenantID, recent).Scan(&bench))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO workout_exercises (tenant_id, workout_id, exercise_name, position) VALUES ($1,$2,'Plank',1) RETURNING id::text`,
		tenantID, recent).Scan(&plank))
	_, err = pool.Exec(ctx,
		`INSERT INTO exercise_sets (tenant_id, workout_exercise_id, set_number, weight, reps) VALUES ($1,$2,1,100,5), ($1,$2,2,105,3)`,
		tenantID, bench)
	require.NoError(t, err)

	stmts := []string{
		`INSERT INTO measurements (tenant_id, user_id, measured_on, weight, blood_pressure_systolic) VALUES ($1,$2,'2024-06-10',81.5,120)`,
		`INSERT INTO check_ins (tenant_id, user_id, facility_id, checked_in_at) VALUES ($1,$2,'gym-7','2024-06-30T21:00:00Z')`,
		`INSERT INTO check_ins (tenant_id, user_id, facility_id, checked_in_at) VALUES ($1,$2,'gym-7','2024-07-01T08:00:00Z')`,
		`INSERT INTO goals (tenant_id, user_id, title, status, current_value, target_value, unit) VALUES ($1,$2,'Bench 120','active',105,120,'kg')`,
		`INSERT INTO points_transactions (tenant_id, user_id, points, reason) VALUES ($1,$2,100,'check-in'), ($1,$2,-30,'smoothie')`,
	}
	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt, tenantID, userID)
		require.NoError(t, err)
	}
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		contents, readErr := os.ReadFile(resolvePath(t, rel))
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
