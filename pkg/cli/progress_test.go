package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Error("Expected progress output to contain 'Progress:'")
	}
	if !strings.Contains(output, "(4/4)") {
		t.Errorf("Expected finished progress to show 4/4, got %q", output)
	}
}

func TestSimpleProgressIncrement(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(2)
	progress.Increment()
	if !strings.Contains(buf.String(), "(1/2)") {
		t.Errorf("expected 1/2 after one increment, got %q", buf.String())
	}

	progress.Increment()
	progress.Increment()
	if strings.Contains(buf.String(), "(3/2)") {
		t.Errorf("expected progress to be capped at total, got %q", buf.String())
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf).(*SimpleProgress)

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if strings.Contains(buf.String(), "Progress:") {
		t.Errorf("expected no bar for zero total, got %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") {
		t.Error("Expected error output to contain 'Error:'")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Expected error output to contain error message")
	}
}

func TestPrintStatus(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		kind   StatusKind
		marker string
	}{
		{StatusInfo, "•"},
		{StatusSuccess, "✓"},
		{StatusWarning, "!"},
		{StatusFailure, "✗"},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		PrintStatus(buf, tt.kind, "%s %s", "a.txt", "done")
		want := tt.marker + " a.txt done\n"
		if buf.String() != want {
			t.Errorf("PrintStatus(%d) = %q, want %q", tt.kind, buf.String(), want)
		}
	}
}
