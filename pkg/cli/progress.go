package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Increment()
	Finish()
	Error(err error)
}

// SimpleProgress implements a simple text-based progress reporter.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer: w,
	}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()

	p.render()
}

// Update updates the current progress.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

// Increment advances progress by one item.
func (p *SimpleProgress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.render()
}

// Finish marks the progress as complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Error reports an error during progress.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n%s %v\n", color.RedString("✗ Error:"), err)
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	current := min(p.current, p.total)
	percent := float64(current) / float64(p.total) * 100
	barWidth := 40
	filled := int(float64(barWidth) * percent / 100)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var rate float64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%d/%d) %.1f files/s",
		bar, percent, current, p.total, rate)
}

// StatusKind selects the marker and color of a status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusFailure
)

// PrintStatus writes one marked status line, e.g. "✓ a.txt processed".
// Color is dropped automatically when w is not a terminal.
func PrintStatus(w io.Writer, kind StatusKind, format string, args ...any) {
	var marker string
	switch kind {
	case StatusSuccess:
		marker = color.GreenString("✓")
	case StatusWarning:
		marker = color.YellowString("!")
	case StatusFailure:
		marker = color.RedString("✗")
	default:
		marker = color.CyanString("•")
	}
	fmt.Fprintf(w, "%s %s\n", marker, fmt.Sprintf(format, args...))
}
