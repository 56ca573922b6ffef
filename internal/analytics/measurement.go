package analytics

import (
	"slices"
	"time"
)

// Point is a dated value in a time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MeasurementSeries picks metric from records whose calendar day lies within
// [start, end], skipping records without it, in ascending date order.
func MeasurementSeries(records []MeasurementRecord, metric Metric, start, end time.Time) []Point {
	from, to := Day(start), Day(end)
	out := make([]Point, 0, len(records))
	for _, r := range records {
		d := Day(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		v, ok := r.Value(metric)
		if !ok {
			continue
		}
		out = append(out, Point{Date: d, Value: v})
	}
	slices.SortStableFunc(out, func(a, b Point) int { return a.Date.Compare(b.Date) })
	return out
}

// ChangeFromPrevious returns the percentage change between the last two points, or nil
// when there are fewer than two points or the earlier value is zero.
func ChangeFromPrevious(points []Point) *float64 {
	if len(points) < 2 {
		return nil
	}
	prev, last := points[len(points)-2].Value, points[len(points)-1].Value
	if prev == 0 {
		return nil
	}
	change := (last - prev) / prev * 100
	return &change
}

// Latest returns the most recent point of an ascending series.
func Latest(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}
