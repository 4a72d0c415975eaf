package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"firekey-hq/tally/pkg/usage"
)

// Header is the column row written to an empty CSV ledger.
var Header = []string{
	"file_name",
	"model",
	"estimated_prompt_tokens",
	"actual_prompt_tokens",
	"completion_tokens",
	"total_tokens",
	"cost",
	"timestamp",
}

// CSVLogger appends usage rows to a CSV file. Rows are flushed as they are
// written and earlier rows are never rewritten.
type CSVLogger struct {
	path       string
	syncWrites bool
	logger     *slog.Logger

	mu        sync.Mutex
	file      *os.File
	writer    *csv.Writer
	rows      int
	finalized bool
}

// CSVOption configures a CSVLogger.
type CSVOption func(*CSVLogger)

// WithSyncWrites fsyncs the file after every row.
func WithSyncWrites(enabled bool) CSVOption {
	return func(l *CSVLogger) { l.syncWrites = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CSVOption {
	return func(l *CSVLogger) { l.logger = logger }
}

// NewCSVLogger opens path for appending, creating it and its directory if
// needed. The header row is written only when the file is empty.
func NewCSVLogger(path string, opts ...CSVOption) (*CSVLogger, error) {
	l := &CSVLogger{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "ledger.csv", "path", path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &WriteError{Path: path, Operation: "open", Cause: err}
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, &WriteError{Path: path, Operation: "open", Cause: err}
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &WriteError{Path: path, Operation: "open", Cause: err}
	}

	l.file = file
	l.writer = csv.NewWriter(file)

	if info.Size() == 0 {
		if err := l.writeRow(Header); err != nil {
			file.Close()
			return nil, &WriteError{Path: path, Operation: "header", Cause: err}
		}
	}

	return l, nil
}

// Path returns the file path.
func (l *CSVLogger) Path() string {
	return l.path
}

// Rows returns the number of data rows appended by this logger.
func (l *CSVLogger) Rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Append writes one data row for rec.
func (l *CSVLogger) Append(rec *usage.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finalized {
		return ErrAlreadyFinalized
	}
	if err := l.writeRow(recordRow(rec)); err != nil {
		return &WriteError{Path: l.path, Operation: "append", Cause: err}
	}
	l.rows++
	return nil
}

// Finalize appends the summary row. It succeeds once; later calls return
// ErrAlreadyFinalized.
func (l *CSVLogger) Finalize(summary *usage.Summary) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finalized {
		return ErrAlreadyFinalized
	}
	l.finalized = true

	if summary == nil {
		summary = usage.Summarize(nil)
	}

	// Written raw so the row is not quoted by the CSV writer.
	if _, err := fmt.Fprintln(l.file, SummaryLine(summary)); err != nil {
		return &WriteError{Path: l.path, Operation: "finalize", Cause: err}
	}
	if err := l.file.Sync(); err != nil {
		return &WriteError{Path: l.path, Operation: "sync", Cause: err}
	}

	l.logger.Debug("Ledger finalized", "rows", l.rows, "files", summary.FileCount)
	return nil
}

// Check reports whether the log still accepts rows.
func (l *CSVLogger) Check(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.file == nil:
		return os.ErrClosed
	case l.finalized:
		return ErrAlreadyFinalized
	}
	return nil
}

// Close closes the file. It does not write a summary.
func (l *CSVLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *CSVLogger) writeRow(row []string) error {
	if l.file == nil {
		return os.ErrClosed
	}
	if err := l.writer.Write(row); err != nil {
		return err
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return err
	}
	if l.syncWrites {
		return l.file.Sync()
	}
	return nil
}

func recordRow(rec *usage.Record) []string {
	return []string{
		rec.FileName,
		rec.Model,
		strconv.Itoa(rec.EstimatedPromptTokens),
		optionalInt(rec.ActualPromptTokens),
		optionalInt(rec.CompletionTokens),
		optionalInt(rec.TotalTokens),
		rec.Cost.StringFixed(6),
		rec.Timestamp.UTC().Format(time.RFC3339),
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
