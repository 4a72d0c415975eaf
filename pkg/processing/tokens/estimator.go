package tokens

// Estimator estimates token counts for prompts and completions before the
// provider reports actual usage.
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	// It returns 0 for empty text and at least 1 otherwise.
	EstimateText(text string) int

	// EstimateValue estimates tokens for an arbitrary prompt value.
	// Inputs that cannot be read as text yield an *EstimationError and 0.
	EstimateValue(v any) (int, error)
}
