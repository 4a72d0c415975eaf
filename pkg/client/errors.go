package client

import "fmt"

// ProcessingFailed is returned when a call failed permanently or exhausted
// its attempts. It is a per-file failure; batches continue past it.
type ProcessingFailed struct {
	// FileName identifies the input the call was made for.
	FileName string

	// Attempts is the number of attempts made.
	Attempts int

	// Cause is the error of the last attempt.
	Cause error
}

func (e *ProcessingFailed) Error() string {
	return fmt.Sprintf("processing %q failed after %d attempt(s): %v", e.FileName, e.Attempts, e.Cause)
}

func (e *ProcessingFailed) Unwrap() error {
	return e.Cause
}
