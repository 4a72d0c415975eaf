package costs

import "github.com/shopspring/decimal"

// PricingEntry is the per-1K-token price of one model in USD.
type PricingEntry struct {
	// Model is the model identifier the entry is keyed by.
	Model string

	// PromptPer1K is the cost per 1000 prompt tokens.
	PromptPer1K decimal.Decimal

	// CompletionPer1K is the cost per 1000 completion tokens.
	CompletionPer1K decimal.Decimal
}

// Cost is the priced result of one call.
type Cost struct {
	// Model is the model the cost was computed for.
	Model string

	// PromptCost is the cost of the prompt tokens.
	PromptCost decimal.Decimal

	// CompletionCost is the cost of the completion tokens.
	CompletionCost decimal.Decimal

	// Amount is PromptCost + CompletionCost.
	Amount decimal.Decimal

	// Fallback is true when the model was not in the pricing table and the
	// default rate was used.
	Fallback bool
}
