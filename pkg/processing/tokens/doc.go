// Package tokens provides token estimation for prompts and completions.
//
// Estimates are character based: the rune count divided by a configurable
// characters-per-token ratio (4.0 by default), rounded up. Non-empty text is
// always at least one token. Estimates are informational; actual usage
// reported by the provider always wins when present.
//
//	estimator := tokens.NewSimpleEstimator(&cfg.Processing.Tokens)
//	n := estimator.EstimateText(prompt)
package tokens
