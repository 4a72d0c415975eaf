package ledger

import (
	"errors"
	"fmt"
)

// ErrAlreadyFinalized is returned by Finalize on a sink that already wrote
// its summary, and by Append after that.
var ErrAlreadyFinalized = errors.New("ledger already finalized")

// WriteError is returned when a ledger file cannot be written.
type WriteError struct {
	Path      string // File being written
	Operation string // "open", "header", "append", "finalize", "sync"
	Cause     error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger write error [path=%s, operation=%s]: %v", e.Path, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}
