// Package providers defines how FireKey talks to a language-model API.
//
// # Caller
//
// A Caller performs exactly one network call and returns the raw response
// document. Two implementations ship with the module:
//
//   - openai.Caller uses the official OpenAI SDK
//   - HTTPCaller posts to any OpenAI-compatible /chat/completions endpoint
//
// Tests and the demo command use CallerFunc to adapt plain functions.
//
// # Error Taxonomy
//
// Failures are classified so the tracked client can decide whether to retry:
//
//   - Transient: TransientError, RateLimitError, TimeoutError, ProviderError
//     with status 0 or 5xx, and network timeouts
//   - Permanent: PermanentError, AuthError, ValidationError, ProviderError
//     with any other status, and anything unclassified
//
// IsTransient implements the rule; ErrorForStatus maps HTTP statuses onto it.
//
// # Extraction
//
// DefaultCompletionExtractor and DefaultUsageExtractor read the common
// response shapes with gjson. Custom extractors can be supplied per request.
package providers
