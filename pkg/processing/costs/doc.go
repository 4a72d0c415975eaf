// Package costs prices token usage against a per-model pricing table.
//
// Prices are expressed per 1K tokens and computed with shopspring/decimal so
// sums over many records stay exact. Lookup never fails: an exact model match
// is tried first, then the longest configured prefix (so a dated snapshot
// such as "gpt-4o-mini-2024-07-18" uses "gpt-4o-mini"), then the default
// entry. Cost.Fallback reports when the default was used.
//
//	calculator := costs.NewCalculator(&cfg.Processing.Costs)
//	cost := calculator.PriceFor("gpt-4o-mini", 100, 50)
//	fmt.Printf("$%s\n", cost.Amount.StringFixed(6))
//
// UpdatePricing swaps the table atomically, which is how configuration
// reloads reach a running batch.
package costs
