// Package mock provides callers and an HTTP server for tests and demos.
package mock

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"firekey-hq/tally/pkg/providers"
)

// Step is one scripted call result.
type Step struct {
	Response []byte
	Err      error
}

// Caller replays Steps in order, then returns Default for every later call.
type Caller struct {
	mu      sync.Mutex
	steps   []Step
	Default []byte
	prompts []string
}

var _ providers.Caller = (*Caller)(nil)

// NewCaller creates a caller that returns response after the given steps.
func NewCaller(response []byte, steps ...Step) *Caller {
	return &Caller{steps: steps, Default: response}
}

// Call implements providers.Caller.
func (c *Caller) Call(ctx context.Context, prompt, _ string, _ providers.Options) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.steps) > 0 {
		s := c.steps[0]
		c.steps = c.steps[1:]
		return s.Response, s.Err
	}
	return c.Default, nil
}

// Calls returns the number of calls made.
func (c *Caller) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Prompts returns the prompts received, in order.
func (c *Caller) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// UsageResponse returns a chat completion document with the given usage.
func UsageResponse(content string, promptTokens, completionTokens int) []byte {
	data, _ := json.Marshal(ChatCompletion(content, "gpt-4o-mini", promptTokens, completionTokens))
	return data
}

// ReverseCaller answers with the prompt reversed and reports usage of a
// quarter of the characters (at least 1) for prompt and completion. It needs
// no network and is deterministic.
type ReverseCaller struct{}

var _ providers.Caller = ReverseCaller{}

// Call implements providers.Caller.
func (ReverseCaller) Call(ctx context.Context, prompt, model string, _ providers.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	completion := reverse(prompt)
	promptTokens := quarter(prompt)
	completionTokens := quarter(completion)
	return json.Marshal(ChatCompletion(completion, model, promptTokens, completionTokens))
}

func quarter(s string) int {
	if n := utf8.RuneCountInString(s) / 4; n > 0 {
		return n
	}
	return 1
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
