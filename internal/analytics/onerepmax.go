package analytics

import (
	"fmt"
	"math"
)

// Formula selects a one-rep-max regression. The zero value is Brzycki.
type Formula int

const (
	Brzycki Formula = iota
	Epley
)

// MaxReliableReps is the highest rep count whose estimate feeds personal records.
const MaxReliableReps = 12

func (f Formula) String() string {
	switch f {
	case Brzycki:
		return "brzycki"
	case Epley:
		return "epley"
	}
	return fmt.Sprintf("formula(%d)", int(f))
}

// ParseFormula maps an API value onto a Formula. An empty value selects Brzycki.
func ParseFormula(value string) (Formula, error) {
	switch value {
	case "", "brzycki":
		return Brzycki, nil
	case "epley":
		return Epley, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormula, value)
}

// EstimateOneRepMax estimates the heaviest single repetition from a (weight, reps) set.
// A single rep is returned as-is, as is any Brzycki input above MaxReliableReps.
// Computed estimates are rounded to one decimal place.
func EstimateOneRepMax(weight float64, reps int, formula Formula) (float64, error) {
	if weight <= 0 {
		return 0, &InvalidInputError{Field: "weight", Value: weight}
	}
	if reps <= 0 {
		return 0, &InvalidInputError{Field: "reps", Value: float64(reps)}
	}
	if reps == 1 {
		return weight, nil
	}

	switch formula {
	case Brzycki:
		if reps > MaxReliableReps {
			return weight, nil
		}
		return roundTenth(weight / (1.0278 - 0.0278*float64(reps))), nil
	case Epley:
		return roundTenth(weight * (1 + float64(reps)/30)), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormula, formula)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
