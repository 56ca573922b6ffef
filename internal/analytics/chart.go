package analytics

import (
	"fmt"
	"slices"
	"time"
)

// NoDataLabel labels the placeholder point emitted for empty charts.
const NoDataLabel = "no data"

// ChartSeries is a single-series chart. Labels and Series always have equal length.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
}

// Dataset is one named series of a MultiSeries chart.
type Dataset struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// MultiSeries is a chart with several datasets sharing one label axis.
type MultiSeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Empty reports whether the chart is the "no data" placeholder.
func (c ChartSeries) Empty() bool {
	return len(c.Labels) == 1 && c.Labels[0] == NoDataLabel
}

// Empty reports whether the chart is the "no data" placeholder.
func (c MultiSeries) Empty() bool {
	return len(c.Labels) == 1 && c.Labels[0] == NoDataLabel
}

func noDataSeries() ChartSeries {
	return ChartSeries{Labels: []string{NoDataLabel}, Series: []float64{0}}
}

func noDataMulti(names ...string) MultiSeries {
	out := MultiSeries{Labels: []string{NoDataLabel}, Datasets: make([]Dataset, 0, len(names))}
	for _, name := range names {
		out.Datasets = append(out.Datasets, Dataset{Name: name, Values: []float64{0}})
	}
	return out
}

// CountsChart charts bucket counts.
func CountsChart(counts []BucketCount) ChartSeries {
	if len(counts) == 0 {
		return noDataSeries()
	}
	out := ChartSeries{Labels: make([]string, 0, len(counts)), Series: make([]float64, 0, len(counts))}
	for _, c := range counts {
		out.Labels = append(out.Labels, c.Bucket.Label)
		out.Series = append(out.Series, float64(c.Count))
	}
	return out
}

// PointsChart charts a dated series with "M/D" labels.
func PointsChart(points []Point) ChartSeries {
	if len(points) == 0 {
		return noDataSeries()
	}
	out := ChartSeries{Labels: make([]string, 0, len(points)), Series: make([]float64, 0, len(points))}
	for _, p := range points {
		out.Labels = append(out.Labels, shortDate(p.Date))
		out.Series = append(out.Series, p.Value)
	}
	return out
}

// DistributionChart charts muscle-group shares by name.
func DistributionChart(shares []MuscleGroupShare) ChartSeries {
	if len(shares) == 0 {
		return noDataSeries()
	}
	out := ChartSeries{Labels: make([]string, 0, len(shares)), Series: make([]float64, 0, len(shares))}
	for _, s := range shares {
		out.Labels = append(out.Labels, s.Name)
		out.Series = append(out.Series, float64(s.Count))
	}
	return out
}

// LedgerChart charts net points per bucket.
func LedgerChart(buckets []BucketPoints) ChartSeries {
	if len(buckets) == 0 {
		return noDataSeries()
	}
	out := ChartSeries{Labels: make([]string, 0, len(buckets)), Series: make([]float64, 0, len(buckets))}
	for _, b := range buckets {
		out.Labels = append(out.Labels, b.Bucket.Label)
		out.Series = append(out.Series, float64(b.Net))
	}
	return out
}

// VolumeChart charts workout counts and total minutes per bucket.
func VolumeChart(volumes []BucketVolume) MultiSeries {
	if len(volumes) == 0 {
		return noDataMulti("workouts", "minutes")
	}
	workouts := Dataset{Name: "workouts", Values: make([]float64, 0, len(volumes))}
	minutes := Dataset{Name: "minutes", Values: make([]float64, 0, len(volumes))}
	labels := make([]string, 0, len(volumes))
	for _, v := range volumes {
		labels = append(labels, v.Bucket.Label)
		workouts.Values = append(workouts.Values, float64(v.Workouts))
		minutes.Values = append(minutes.Values, float64(v.TotalMinutes))
	}
	return MultiSeries{Labels: labels, Datasets: []Dataset{workouts, minutes}}
}

// BloodPressureChart charts systolic and diastolic readings within [start, end]. Only
// records carrying both values are plotted so the datasets stay aligned.
func BloodPressureChart(records []MeasurementRecord, start, end time.Time) MultiSeries {
	from, to := Day(start), Day(end)
	type reading struct {
		date                time.Time
		systolic, diastolic float64
	}
	readings := make([]reading, 0, len(records))
	for _, r := range records {
		d := Day(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		sys, okSys := r.Value(MetricBloodPressureSystolic)
		dia, okDia := r.Value(MetricBloodPressureDiastolic)
		if !okSys || !okDia {
			continue
		}
		readings = append(readings, reading{date: d, systolic: sys, diastolic: dia})
	}
	if len(readings) == 0 {
		return noDataMulti("systolic", "diastolic")
	}
	slices.SortStableFunc(readings, func(a, b reading) int { return a.date.Compare(b.date) })

	systolic := Dataset{Name: "systolic", Values: make([]float64, 0, len(readings))}
	diastolic := Dataset{Name: "diastolic", Values: make([]float64, 0, len(readings))}
	labels := make([]string, 0, len(readings))
	for _, r := range readings {
		labels = append(labels, shortDate(r.date))
		systolic.Values = append(systolic.Values, r.systolic)
		diastolic.Values = append(diastolic.Values, r.diastolic)
	}
	return MultiSeries{Labels: labels, Datasets: []Dataset{systolic, diastolic}}
}

func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
