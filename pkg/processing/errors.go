package processing

import (
	"errors"
	"fmt"
	"io/fs"
)

// SkipError is reported for a job whose input file could not be read.
type SkipError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	if errors.Is(e.Cause, fs.ErrNotExist) {
		return fmt.Sprintf("file %q does not exist", e.Path)
	}
	return fmt.Sprintf("file %q could not be read: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SkipError) Unwrap() error {
	return e.Cause
}
