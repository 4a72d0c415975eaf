package providers

import (
	"github.com/tidwall/gjson"

	"firekey-hq/tally/pkg/usage"
)

// CompletionExtractor reads the completion text from a raw response.
type CompletionExtractor func(raw []byte) (string, error)

// UsageExtractor reads token usage from a raw response. It returns an
// *ExtractionError when the response carries no usable usage block.
type UsageExtractor func(raw []byte) (*usage.Usage, error)

// completionPaths are tried in order by DefaultCompletionExtractor.
var completionPaths = []string{
	"choices.0.message.content",
	"choices.0.text",
	"message.content",
	"output.0.content.0.text",
	"output_text",
}

// DefaultCompletionExtractor reads chat completions, legacy text
// completions, single-message responses and Responses API output.
func DefaultCompletionExtractor(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", &ExtractionError{Field: "completion", Reason: "response is not valid JSON"}
	}
	for _, path := range completionPaths {
		if res := gjson.GetBytes(raw, path); res.Type == gjson.String {
			return res.String(), nil
		}
	}
	return "", &ExtractionError{Field: "completion", Reason: "no completion text found"}
}

// DefaultUsageExtractor reads the usage block. Prompt tokens are required,
// plus at least one of completion or total tokens; the missing one is
// derived from the other, as is a zero completion count below a larger
// total. Responses API names (input_tokens, output_tokens)
// are accepted as well.
func DefaultUsageExtractor(raw []byte) (*usage.Usage, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ExtractionError{Field: "usage", Reason: "response is not valid JSON"}
	}

	block := gjson.GetBytes(raw, "usage")
	if !block.IsObject() {
		return nil, &ExtractionError{Field: "usage", Reason: "usage block missing"}
	}

	prompt := firstNumber(block, "prompt_tokens", "input_tokens")
	completion := firstNumber(block, "completion_tokens", "output_tokens")
	total := firstNumber(block, "total_tokens")

	if !prompt.Exists() {
		return nil, &ExtractionError{Field: "usage", Reason: "prompt_tokens missing"}
	}
	if !completion.Exists() && !total.Exists() {
		return nil, &ExtractionError{Field: "usage", Reason: "completion_tokens and total_tokens missing"}
	}

	u := &usage.Usage{PromptTokens: int(prompt.Int())}
	switch {
	case completion.Exists() && total.Exists():
		u.CompletionTokens = int(completion.Int())
		u.TotalTokens = int(total.Int())
		// Some providers report completion_tokens as 0 alongside a larger total.
		if u.CompletionTokens == 0 && u.TotalTokens > u.PromptTokens {
			u.CompletionTokens = u.TotalTokens - u.PromptTokens
		}
	case completion.Exists():
		u.CompletionTokens = int(completion.Int())
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	default:
		u.TotalTokens = int(total.Int())
		u.CompletionTokens = u.TotalTokens - u.PromptTokens
		if u.CompletionTokens < 0 {
			return nil, &ExtractionError{Field: "usage", Reason: "total_tokens smaller than prompt_tokens"}
		}
	}
	return u, nil
}

func firstNumber(block gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if res := block.Get(key); res.Type == gjson.Number {
			return res
		}
	}
	return gjson.Result{}
}
