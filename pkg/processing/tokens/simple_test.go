package tokens

import (
	"errors"
	"strings"
	"testing"

	"firekey-hq/tally/pkg/config"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestSimpleEstimator_EstimateText(t *testing.T) {
	estimator := NewSimpleEstimator(&config.TokensConfig{CharsPerToken: 4.0})

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty text", text: "", expected: 0},
		{name: "single character", text: "a", expected: 1},
		{name: "exact multiple", text: "abcdefgh", expected: 2},
		{name: "rounds up", text: "Hello, world!", expected: 4},
		{name: "400 characters", text: strings.Repeat("x", 400), expected: 100},
		{name: "multibyte runes counted once", text: "héllo", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimator.EstimateText(tt.text); got != tt.expected {
				t.Errorf("expected %d tokens, got %d", tt.expected, got)
			}
		})
	}
}

func TestSimpleEstimator_Deterministic(t *testing.T) {
	estimator := NewSimpleEstimator(nil)
	text := "The quick brown fox jumps over the lazy dog."

	first := estimator.EstimateText(text)
	for i := 0; i < 10; i++ {
		if got := estimator.EstimateText(text); got != first {
			t.Fatalf("expected %d on every call, got %d", first, got)
		}
	}
}

func TestSimpleEstimator_Monotonic(t *testing.T) {
	estimator := NewSimpleEstimator(nil)

	prev := 0
	for n := 0; n <= 200; n++ {
		got := estimator.EstimateText(strings.Repeat("a", n))
		if got < prev {
			t.Fatalf("estimate decreased from %d to %d at length %d", prev, got, n)
		}
		if n > 0 && got < 1 {
			t.Fatalf("expected at least 1 token for non-empty text, got %d", got)
		}
		prev = got
	}
}

func TestSimpleEstimator_CustomRatio(t *testing.T) {
	estimator := NewSimpleEstimator(&config.TokensConfig{CharsPerToken: 2.0})
	if got := estimator.EstimateText("abcdef"); got != 3 {
		t.Errorf("expected 3 tokens at 2 chars/token, got %d", got)
	}

	estimator.SetCharsPerToken(0)
	if got := estimator.CharsPerToken(); got != DefaultCharsPerToken {
		t.Errorf("expected reset to default ratio, got %v", got)
	}
}

func TestSimpleEstimator_EstimateValue(t *testing.T) {
	estimator := NewSimpleEstimator(nil)

	tests := []struct {
		name        string
		value       any
		expected    int
		expectError bool
	}{
		{name: "string", value: "abcdefgh", expected: 2},
		{name: "bytes", value: []byte("abcd"), expected: 1},
		{name: "stringer", value: stringer("abcdefghijkl"), expected: 3},
		{name: "string slice", value: []string{"abc", "def"}, expected: 2},
		{
			name: "text parts",
			value: []any{
				map[string]any{"type": "text", "text": "abcd"},
				"efg",
			},
			expected: 2,
		},
		{name: "integer", value: 42, expectError: true},
		{name: "nil", value: nil, expectError: true},
		{name: "invalid utf-8", value: []byte{0xff, 0xfe, 0xfd}, expectError: true},
		{
			name:        "image part",
			value:       []any{map[string]any{"type": "image_url", "image_url": "x"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := estimator.EstimateValue(tt.value)
			if tt.expectError {
				var estErr *EstimationError
				if !errors.As(err, &estErr) {
					t.Fatalf("expected EstimationError, got %v", err)
				}
				if got != 0 {
					t.Errorf("expected zero estimate on error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %d tokens, got %d", tt.expected, got)
			}
		})
	}
}
