package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	// RunIDKey is the context key for ledger run IDs.
	RunIDKey contextKey = "run_id"

	// FileKey is the context key for the file being processed.
	FileKey contextKey = "file"

	// ModelKey is the context key for model names.
	ModelKey contextKey = "model"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey).(string); ok {
		return v
	}
	return ""
}

// WithFile adds a file name to the context.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, FileKey, file)
}

// GetFile retrieves the file name from the context.
func GetFile(ctx context.Context) string {
	if v, ok := ctx.Value(FileKey).(string); ok {
		return v
	}
	return ""
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model name from the context.
func GetModel(ctx context.Context) string {
	if v, ok := ctx.Value(ModelKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns the context fields as slog attributes.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if v := GetRunID(ctx); v != "" {
		fields = append(fields, slog.String("run_id", v))
	}
	if v := GetFile(ctx); v != "" {
		fields = append(fields, slog.String("file", v))
	}
	if v := GetModel(ctx); v != "" {
		fields = append(fields, slog.String("model", v))
	}
	return fields
}

// contextHandler adds context fields to records logged with a context
// (InfoContext and friends).
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		rec = rec.Clone()
		rec.AddAttrs(fields...)
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
