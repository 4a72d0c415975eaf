package processing

import (
	"fmt"

	"firekey-hq/tally/pkg/usage"
)

// Job is one file to process.
type Job struct {
	// FileName keys the cache, the usage record and error log lines.
	FileName string

	// Path is read when Prompt is empty. A missing file is logged and skipped.
	Path string

	// Prompt, when set, is sent as-is and Path is not read.
	Prompt string

	// System is an optional system prompt.
	System string

	// Model overrides the client's default model.
	Model string
}

// Status is the outcome kind of a job.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusCached    Status = "cached"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome is the result of one job.
type Outcome struct {
	FileName string
	Status   Status

	// Text is the extracted completion (empty for skipped and failed jobs).
	Text string

	// Raw is the response document, live or cached.
	Raw []byte

	// Record is set for live calls only; cache hits are not accounted.
	Record *usage.Record

	// Err is set for failed and skipped jobs.
	Err error
}

// Report aggregates the outcomes of a batch.
type Report struct {
	Outcomes []Outcome

	Processed int
	Cached    int
	Failed    int
	Skipped   int

	// NotStarted counts jobs left unscheduled when the batch was cancelled.
	NotStarted int
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusProcessed:
		r.Processed++
	case StatusCached:
		r.Cached++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

// String returns a one-line summary of the batch.
func (r *Report) String() string {
	s := fmt.Sprintf("%d processed, %d cached, %d failed, %d skipped",
		r.Processed, r.Cached, r.Failed, r.Skipped)
	if r.NotStarted > 0 {
		s += fmt.Sprintf(", %d not started", r.NotStarted)
	}
	return s
}
