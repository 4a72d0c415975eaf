package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID() on empty context = %q, want empty", got)
	}

	ctx = WithRunID(ctx, "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-123")
	}

	ctx = WithFile(ctx, "a.txt")
	if got := GetFile(ctx); got != "a.txt" {
		t.Errorf("GetFile() = %q, want %q", got, "a.txt")
	}

	ctx = WithModel(ctx, "gpt-4o")
	if got := GetModel(ctx); got != "gpt-4o" {
		t.Errorf("GetModel() = %q, want %q", got, "gpt-4o")
	}
}

func TestExtractContextFields(t *testing.T) {
	if fields := extractContextFields(context.Background()); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}

	ctx := WithModel(WithRunID(context.Background(), "run-1"), "gpt-4o")
	fields := extractContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "run_id" || fields[1].Key != "model" {
		t.Errorf("unexpected field order: %v", fields)
	}
}

func TestContextHandler_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithFile(WithRunID(context.Background(), "run-9"), "b.txt")
	logger.Slog().InfoContext(ctx, "Cache hit")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-9") {
		t.Errorf("expected run_id in output, got %q", out)
	}
	if !strings.Contains(out, "file=b.txt") {
		t.Errorf("expected file in output, got %q", out)
	}
}
