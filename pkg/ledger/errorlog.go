package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorLogTimeFormat is the timestamp layout of error log lines.
const ErrorLogTimeFormat = "2006-01-02 15:04:05"

// ErrorLog is an append-only plain-text failure log. The file is opened per
// line and never truncated.
type ErrorLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewErrorLog creates an error log writing to path.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path, now: time.Now}
}

// Path returns the file path.
func (l *ErrorLog) Path() string {
	return l.path
}

// LogError appends "[timestamp] message".
func (l *ErrorLog) LogError(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &WriteError{Path: l.path, Operation: "open", Cause: err}
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return &WriteError{Path: l.path, Operation: "open", Cause: err}
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", l.now().Format(ErrorLogTimeFormat), message); err != nil {
		return &WriteError{Path: l.path, Operation: "append", Cause: err}
	}
	return nil
}
