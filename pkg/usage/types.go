package usage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Usage is the token usage reported by the provider for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Record is the accounting entry for one successful call. Records are
// immutable once created.
type Record struct {
	// FileName identifies the input the call was made for.
	FileName string

	// Model is the model the call was made with.
	Model string

	// EstimatedPromptTokens is the pre-call estimate of the prompt.
	EstimatedPromptTokens int

	// ActualPromptTokens, CompletionTokens and TotalTokens are the usage
	// reported by the provider; nil when the response carried no usage.
	ActualPromptTokens *int
	CompletionTokens   *int
	TotalTokens        *int

	// EstimatedCompletionTokens is the completion estimate used for pricing
	// when the response carried no usage.
	EstimatedCompletionTokens int

	// Cost is the priced cost of the call in USD.
	Cost decimal.Decimal

	// Timestamp is when the record was created.
	Timestamp time.Time

	// FallbackRate is true when the default pricing entry was used.
	FallbackRate bool

	// CostEstimated is true when the cost was derived from estimates.
	CostEstimated bool
}

// Tokens returns the total token count of the record: the reported total
// when present, otherwise the sum of the estimates.
func (r *Record) Tokens() int {
	if r.TotalTokens != nil {
		return *r.TotalTokens
	}
	return r.EstimatedPromptTokens + r.EstimatedCompletionTokens
}

// StatusLine returns the per-file line printed when the record is created.
func (r *Record) StatusLine() string {
	return fmt.Sprintf("%s: %d tokens, $%s", r.FileName, r.Tokens(), r.Cost.StringFixed(6))
}

// ModelSummary aggregates records of one model.
type ModelSummary struct {
	Files  int
	Tokens int
	Cost   decimal.Decimal
}

// Summary aggregates all records of a run.
type Summary struct {
	FileCount   int
	TotalTokens int
	TotalCost   decimal.Decimal
	Models      map[string]ModelSummary
}

// String returns the end-of-run summary line.
func (s *Summary) String() string {
	return fmt.Sprintf("Total: %d files, %d tokens, $%s", s.FileCount, s.TotalTokens, s.TotalCost.StringFixed(6))
}

// Summarize aggregates a sequence of records.
func Summarize(records []*Record) *Summary {
	s := &Summary{
		TotalCost: decimal.Zero,
		Models:    make(map[string]ModelSummary),
	}
	for _, r := range records {
		tokens := r.Tokens()
		s.FileCount++
		s.TotalTokens += tokens
		s.TotalCost = s.TotalCost.Add(r.Cost)

		m := s.Models[r.Model]
		m.Files++
		m.Tokens += tokens
		m.Cost = m.Cost.Add(r.Cost)
		s.Models[r.Model] = m
	}
	return s
}
