package tokens

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"firekey-hq/tally/pkg/config"
)

// DefaultCharsPerToken is used when no positive ratio is configured.
const DefaultCharsPerToken = 4.0

// SimpleEstimator implements character-based token estimation.
// It is pure and deterministic: the same text always yields the same count,
// and longer text never yields fewer tokens.
type SimpleEstimator struct {
	charsPerToken float64

	// mu protects charsPerToken during configuration reloads
	mu sync.RWMutex
}

// NewSimpleEstimator creates a new simple character-based token estimator.
// A nil config uses DefaultCharsPerToken.
func NewSimpleEstimator(cfg *config.TokensConfig) *SimpleEstimator {
	e := &SimpleEstimator{charsPerToken: DefaultCharsPerToken}
	if cfg != nil {
		e.SetCharsPerToken(cfg.CharsPerToken)
	}
	return e
}

// SetCharsPerToken replaces the ratio. Non-positive values reset it to the default.
func (e *SimpleEstimator) SetCharsPerToken(ratio float64) {
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	e.mu.Lock()
	e.charsPerToken = ratio
	e.mu.Unlock()
}

// CharsPerToken returns the active ratio.
func (e *SimpleEstimator) CharsPerToken() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.charsPerToken
}

// EstimateText estimates tokens for a single text string.
func (e *SimpleEstimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}

	runes := utf8.RuneCountInString(text)
	tokens := int(math.Ceil(float64(runes) / e.CharsPerToken()))
	if tokens < 1 {
		tokens = 1 // Minimum 1 token for non-empty text
	}
	return tokens
}

// EstimateValue estimates tokens for a prompt value. It accepts strings,
// byte slices, fmt.Stringer values and slices of text parts (strings or
// {"type": "text", "text": ...} maps). Any other value, and any byte or
// string input that is not valid UTF-8, returns an *EstimationError.
func (e *SimpleEstimator) EstimateValue(v any) (int, error) {
	text, err := extractText(v)
	if err != nil {
		return 0, err
	}
	return e.EstimateText(text), nil
}

// extractText reads a prompt value as text.
func extractText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", newEstimationError(v, "value is nil")
	case string:
		if !utf8.ValidString(val) {
			return "", newEstimationError(v, "invalid UTF-8")
		}
		return val, nil
	case []byte:
		if !utf8.Valid(val) {
			return "", newEstimationError(v, "invalid UTF-8")
		}
		return string(val), nil
	case fmt.Stringer:
		return extractText(val.String())
	case []string:
		return extractText(strings.Join(val, " "))
	case []any:
		parts := make([]string, 0, len(val))
		for _, part := range val {
			text, err := extractPart(part)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		return extractText(strings.Join(parts, " "))
	default:
		return "", newEstimationError(v, "unsupported type")
	}
}

// extractPart reads one element of a multi-part prompt.
func extractPart(part any) (string, error) {
	switch p := part.(type) {
	case string:
		return p, nil
	case map[string]any:
		if t, _ := p["type"].(string); t != "" && t != "text" {
			return "", newEstimationError(part, fmt.Sprintf("unsupported part type %q", t))
		}
		text, ok := p["text"].(string)
		if !ok {
			return "", newEstimationError(part, "part has no text")
		}
		return text, nil
	default:
		return "", newEstimationError(part, "unsupported part")
	}
}
