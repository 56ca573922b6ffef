package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStreakEmpty(t *testing.T) {
	assert.Equal(t, 0, ComputeStreak(nil, time.Now()))
	assert.Equal(t, 0, ComputeStreak([]time.Time{}, date(2024, 6, 3)))
}

func TestComputeStreakConsecutiveDays(t *testing.T) {
	today := date(2024, 6, 3)
	dates := []time.Time{date(2024, 6, 1), date(2024, 6, 2), date(2024, 6, 3)}
	assert.Equal(t, 3, ComputeStreak(dates, today))
}

func TestComputeStreakStopsAtGap(t *testing.T) {
	today := date(2024, 6, 3)
	dates := []time.Time{date(2024, 6, 1), date(2024, 6, 3)}
	assert.Equal(t, 1, ComputeStreak(dates, today))
}

func TestComputeStreakGraceDayForYesterday(t *testing.T) {
	today := date(2024, 6, 3)
	dates := []time.Time{date(2024, 6, 1), date(2024, 6, 2)}
	assert.Equal(t, 2, ComputeStreak(dates, today))
}

func TestComputeStreakTwoDayGapAtStart(t *testing.T) {
	today := date(2024, 6, 3)
	dates := []time.Time{date(2024, 6, 1), date(2024, 5, 31)}
	assert.Equal(t, 0, ComputeStreak(dates, today))
}

func TestComputeStreakCountsDaysOnce(t *testing.T) {
	reference := time.Date(2024, 6, 3, 21, 30, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 18, 45, 0, 0, time.UTC),
		time.Date(2024, 6, 2, 6, 15, 0, 0, time.UTC),
		time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 2, ComputeStreak(dates, reference))
}

func TestComputeStreakIgnoresFutureDates(t *testing.T) {
	today := date(2024, 6, 3)
	dates := []time.Time{date(2024, 6, 5), date(2024, 6, 3), date(2024, 6, 2)}
	assert.Equal(t, 2, ComputeStreak(dates, today))
}

func TestComputeStreakDoesNotMutateInput(t *testing.T) {
	dates := []time.Time{date(2024, 6, 1), date(2024, 6, 3), date(2024, 6, 2)}
	snapshot := append([]time.Time(nil), dates...)
	ComputeStreak(dates, date(2024, 6, 3))
	assert.Equal(t, snapshot, dates)
}

func TestLongestStreak(t *testing.T) {
	dates := []time.Time{
		date(2024, 5, 1), date(2024, 5, 2), date(2024, 5, 3),
		date(2024, 5, 10), date(2024, 5, 11),
		date(2024, 5, 2),
	}
	assert.Equal(t, 3, LongestStreak(dates))
	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 1, LongestStreak([]time.Time{date(2024, 1, 1)}))
}
