package tokens

import "fmt"

// EstimationError indicates that a value could not be read as text for
// estimation. Callers treat it as a zero estimate and continue.
type EstimationError struct {
	// Type is the Go type of the rejected value.
	Type string

	// Reason describes why the value was rejected.
	Reason string
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("cannot estimate tokens for %s: %s", e.Type, e.Reason)
}

func newEstimationError(v any, reason string) *EstimationError {
	return &EstimationError{Type: fmt.Sprintf("%T", v), Reason: reason}
}
