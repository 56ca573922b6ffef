// Package memory holds fitness records in process memory for local development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/progress/internal/analytics"
)

type userKey struct {
	tenantID string
	userID   string
}

type userRecords struct {
	workouts     []analytics.WorkoutRecord
	measurements []analytics.MeasurementRecord
	checkIns     []analytics.CheckInRecord
	goals        []analytics.GoalRecord
	points       []analytics.PointsTransaction
}

// Repository is an in-memory domain.DataSource partitioned by tenant and user.
type Repository struct {
	mu    sync.RWMutex
	users map[userKey]*userRecords
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[userKey]*userRecords)}
}

func (r *Repository) records(tenantID, userID string) *userRecords {
	key := userKey{tenantID: tenantID, userID: userID}
	recs, ok := r.users[key]
	if !ok {
		recs = &userRecords{}
		r.users[key] = recs
	}
	return recs
}

func ensureID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// AddWorkout stores a workout and returns its ID.
func (r *Repository) AddWorkout(tenantID, userID string, w analytics.WorkoutRecord) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = ensureID(w.ID)
	recs := r.records(tenantID, userID)
	recs.workouts = append(recs.workouts, w)
	return w.ID
}

// AddMeasurement stores a measurement and returns its ID.
func (r *Repository) AddMeasurement(tenantID, userID string, m analytics.MeasurementRecord) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = ensureID(m.ID)
	recs := r.records(tenantID, userID)
	recs.measurements = append(recs.measurements, m)
	return m.ID
}

// AddCheckIn stores a facility check-in and returns its ID.
func (r *Repository) AddCheckIn(tenantID, userID string, c analytics.CheckInRecord) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = ensureID(c.ID)
	recs := r.records(tenantID, userID)
	recs.checkIns = append(recs.checkIns, c)
	return c.ID
}

// AddGoal stores a goal and returns its ID.
func (r *Repository) AddGoal(tenantID, userID string, g analytics.GoalRecord) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = ensureID(g.ID)
	recs := r.records(tenantID, userID)
	recs.goals = append(recs.goals, g)
	return g.ID
}

// AddPointsTransaction stores a ledger entry and returns its ID.
func (r *Repository) AddPointsTransaction(tenantID, userID string, tx analytics.PointsTransaction) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = ensureID(tx.ID)
	recs := r.records(tenantID, userID)
	recs.points = append(recs.points, tx)
	return tx.ID
}

// ListWorkouts implements domain.DataSource.
func (r *Repository) ListWorkouts(_ context.Context, tenantID, userID string, from, to time.Time) ([]analytics.WorkoutRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.users[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	out := make([]analytics.WorkoutRecord, 0, len(recs.workouts))
	for _, w := range recs.workouts {
		if inRange(w.Date, from, to) {
			out = append(out, w)
		}
	}
	sortByDateDesc(out, func(w analytics.WorkoutRecord) time.Time { return w.Date })
	return out, nil
}

// ListMeasurements implements domain.DataSource.
func (r *Repository) ListMeasurements(_ context.Context, tenantID, userID string, from, to time.Time) ([]analytics.MeasurementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.users[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	out := make([]analytics.MeasurementRecord, 0, len(recs.measurements))
	for _, m := range recs.measurements {
		if inRange(m.Date, from, to) {
			out = append(out, m)
		}
	}
	sortByDateDesc(out, func(m analytics.MeasurementRecord) time.Time { return m.Date })
	return out, nil
}

// ListCheckIns implements domain.DataSource.
func (r *Repository) ListCheckIns(_ context.Context, tenantID, userID string, from, to time.Time) ([]analytics.CheckInRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.users[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	out := make([]analytics.CheckInRecord, 0, len(recs.checkIns))
	for _, c := range recs.checkIns {
		if inRange(c.Date, from, to) {
			out = append(out, c)
		}
	}
	sortByDateDesc(out, func(c analytics.CheckInRecord) time.Time { return c.Date })
	return out, nil
}

// ListGoals implements domain.DataSource.
func (r *Repository) ListGoals(_ context.Context, tenantID, userID string) ([]analytics.GoalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.users[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	return slices.Clone(recs.goals), nil
}

// ListPointsTransactions implements domain.DataSource.
func (r *Repository) ListPointsTransactions(_ context.Context, tenantID, userID string) ([]analytics.PointsTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.users[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	out := slices.Clone(recs.points)
	sortByDateDesc(out, func(tx analytics.PointsTransaction) time.Time { return tx.Date })
	return out, nil
}

func inRange(t, from, to time.Time) bool {
	d := analytics.Day(t)
	return !d.Before(analytics.Day(from)) && !d.After(analytics.Day(to))
}

func sortByDateDesc[T any](items []T, dateOf func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(dateOf(b).UnixNano(), dateOf(a).UnixNano())
	})
}
