package analytics

import (
	"fmt"
	"slices"
	"time"
)

// Window names a look-back period ending at a reference instant.
type Window string

const (
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	Window3Months Window = "3months"
	Window6Months Window = "6months"
	WindowYear    Window = "year"
	WindowAllTime Window = "all"
)

// allTimeStartYear is early enough to include any plausible record.
const allTimeStartYear = 2000

// ParseWindow maps an API value onto a Window. An empty value selects WindowMonth.
func ParseWindow(value string) (Window, error) {
	switch value {
	case "":
		return WindowMonth, nil
	case "week", "7d":
		return WindowWeek, nil
	case "month", "30d":
		return WindowMonth, nil
	case "3months", "3m", "90d":
		return Window3Months, nil
	case "6months", "6m":
		return Window6Months, nil
	case "year", "1y", "365d":
		return WindowYear, nil
	case "all", "all-time":
		return WindowAllTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, value)
}

// Range returns [start, end] for the window, with end equal to now.
func Range(now time.Time, window Window) (time.Time, time.Time, error) {
	var start time.Time
	switch window {
	case WindowWeek:
		start = now.AddDate(0, 0, -7)
	case WindowMonth:
		start = now.AddDate(0, -1, 0)
	case Window3Months:
		start = now.AddDate(0, -3, 0)
	case Window6Months:
		start = now.AddDate(0, -6, 0)
	case WindowYear:
		start = now.AddDate(-1, 0, 0)
	case WindowAllTime:
		start = time.Date(allTimeStartYear, time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
	}
	return start, now, nil
}

// BucketSize is the width of an aggregation bucket.
type BucketSize string

const (
	BucketDay   BucketSize = "day"
	BucketWeek  BucketSize = "week"
	BucketMonth BucketSize = "month"
)

// ParseBucketSize maps an API value onto a BucketSize. An empty value selects BucketDay.
func ParseBucketSize(value string) (BucketSize, error) {
	switch BucketSize(value) {
	case "":
		return BucketDay, nil
	case BucketDay, BucketWeek, BucketMonth:
		return BucketSize(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, value)
}

// Bucket is the half-open calendar interval [Start, End).
type Bucket struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether the calendar day of t falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(b.Start) && d.Before(b.End)
}

// Day truncates t to its calendar date, expressed as midnight UTC so that values
// from different locations compare by date alone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Buckets returns n consecutive buckets in chronological order, the last one holding
// the calendar day of end. With n <= 0 enough buckets are produced to cover start.
// If end precedes start the result is empty.
func Buckets(start, end time.Time, size BucketSize, n int) []Bucket {
	if end.Before(start) {
		return nil
	}
	switch size {
	case BucketDay, BucketWeek, BucketMonth:
	default:
		return nil
	}

	endDay := Day(end)
	startDay := Day(start)

	var out []Bucket
	for i := 0; n <= 0 || i < n; i++ {
		b := bucketAt(endDay, size, i)
		out = append(out, b)
		if n <= 0 && !b.Start.After(startDay) {
			break
		}
	}

	slices.Reverse(out)
	return out
}

// bucketAt returns the bucket that lies back steps before the one containing endDay.
func bucketAt(endDay time.Time, size BucketSize, back int) Bucket {
	var start, end time.Time
	switch size {
	case BucketWeek:
		start = endDay.AddDate(0, 0, -6-7*back)
		end = start.AddDate(0, 0, 7)
	case BucketMonth:
		first := time.Date(endDay.Year(), endDay.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = first.AddDate(0, -back, 0)
		end = start.AddDate(0, 1, 0)
	default:
		start = endDay.AddDate(0, 0, -back)
		end = start.AddDate(0, 0, 1)
	}
	return Bucket{Start: start, End: end, Label: bucketLabel(start, size)}
}

func bucketLabel(start time.Time, size BucketSize) string {
	if size == BucketMonth {
		return start.Format("Jan")
	}
	return shortDate(start)
}
