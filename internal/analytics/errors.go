package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownWindow is returned for an unrecognised window name.
	ErrUnknownWindow = errors.New("unknown time window")
	// ErrUnknownBucket is returned for an unrecognised bucket size.
	ErrUnknownBucket = errors.New("unknown bucket size")
	// ErrUnknownFormula is returned for an unrecognised 1RM formula.
	ErrUnknownFormula = errors.New("unknown one-rep-max formula")
	// ErrUnknownMetric is returned for an unrecognised measurement metric.
	ErrUnknownMetric = errors.New("unknown measurement metric")
	// ErrUnknownOrder is returned for an unrecognised personal-record ordering.
	ErrUnknownOrder = errors.New("unknown record order")
)

// InvalidInputError reports a non-positive value handed to the 1RM estimator.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %v must be > 0", e.Field, e.Value)
}
