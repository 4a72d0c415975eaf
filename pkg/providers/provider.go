package providers

import "context"

// Caller performs one network call to a language-model API.
//
// The returned bytes are the raw response document, treated as opaque JSON
// by everything above this package. Implementations make exactly one attempt
// per Call; retrying is the tracked client's job. Errors should be classified
// with the types in this package so IsTransient can decide whether to retry.
//
// Example:
//
//	caller := openai.NewCaller(cfg.Provider)
//	raw, err := caller.Call(ctx, prompt, "gpt-4o-mini", providers.Options{})
type Caller interface {
	Call(ctx context.Context, prompt, model string, opts Options) ([]byte, error)
}

// CallerFunc adapts an ordinary function to the Caller interface.
type CallerFunc func(ctx context.Context, prompt, model string, opts Options) ([]byte, error)

// Call calls f(ctx, prompt, model, opts).
func (f CallerFunc) Call(ctx context.Context, prompt, model string, opts Options) ([]byte, error) {
	return f(ctx, prompt, model, opts)
}

// Options carries per-call request parameters.
type Options struct {
	// Temperature is the sampling temperature; nil uses the caller's default.
	Temperature *float64

	// MaxTokens bounds the completion; 0 means no limit.
	MaxTokens int

	// System is an optional system instruction sent before the prompt.
	System string
}
