package costs

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"firekey-hq/tally/pkg/config"
)

var perThousand = decimal.NewFromInt(1000)

// Calculator prices token usage. It is thread-safe and supports hot-reload
// of pricing configuration.
type Calculator struct {
	pricing  map[string]PricingEntry
	fallback PricingEntry

	// mu protects the pricing table for concurrent access
	mu sync.RWMutex
}

// NewCalculator creates a new cost calculator with the given configuration.
// A nil config uses the built-in pricing table and default rate.
func NewCalculator(cfg *config.CostsConfig) *Calculator {
	c := &Calculator{}
	c.UpdatePricing(cfg)
	return c
}

// PriceFor returns the cost of a call. It never fails: unknown models are
// priced at the default rate with Fallback set.
func (c *Calculator) PriceFor(model string, promptTokens, completionTokens int) Cost {
	entry, fallback := c.Pricing(model)

	prompt := calculateTokenCost(promptTokens, entry.PromptPer1K)
	completion := calculateTokenCost(completionTokens, entry.CompletionPer1K)

	return Cost{
		Model:          model,
		PromptCost:     prompt,
		CompletionCost: completion,
		Amount:         prompt.Add(completion),
		Fallback:       fallback,
	}
}

// Pricing retrieves the pricing entry for a model. It tries an exact match,
// then the longest matching prefix, then the default entry. The boolean
// reports whether the default entry was used.
func (c *Calculator) Pricing(model string) (PricingEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.pricing[model]; ok {
		return entry, false
	}

	var best PricingEntry
	found := false
	for pattern, entry := range c.pricing {
		if strings.HasPrefix(model, pattern) && len(pattern) > len(best.Model) {
			best = entry
			found = true
		}
	}
	if found {
		return best, false
	}

	entry := c.fallback
	entry.Model = model
	return entry, true
}

// Models returns the number of priced models.
func (c *Calculator) Models() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pricing)
}

// UpdatePricing replaces the pricing table (hot-reload support).
// This is thread-safe and can be called while the calculator is in use.
func (c *Calculator) UpdatePricing(cfg *config.CostsConfig) {
	pricing := make(map[string]PricingEntry)
	fallback := config.ModelPricingConfig{
		Prompt:     config.DefaultPromptPricing,
		Completion: config.DefaultCompletionPricing,
	}

	source := config.DefaultPricing()
	if cfg != nil {
		for model, p := range cfg.Pricing {
			source[model] = p
		}
		if cfg.Default.Prompt != 0 || cfg.Default.Completion != 0 {
			fallback = cfg.Default
		}
	}

	for model, p := range source {
		pricing[model] = newEntry(model, p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pricing = pricing
	c.fallback = newEntry("default", fallback)
}

func newEntry(model string, p config.ModelPricingConfig) PricingEntry {
	return PricingEntry{
		Model:           model,
		PromptPer1K:     decimal.NewFromFloat(p.Prompt),
		CompletionPer1K: decimal.NewFromFloat(p.Completion),
	}
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPer1K is the cost per 1000 tokens in USD.
func calculateTokenCost(tokens int, costPer1K decimal.Decimal) decimal.Decimal {
	if tokens <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(tokens)).Mul(costPer1K).Div(perThousand)
}
