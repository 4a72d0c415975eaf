package providers

import (
	"errors"
	"testing"
)

func TestDefaultCompletionExtractor(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expected    string
		expectError bool
	}{
		{
			name:     "chat completion",
			raw:      `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`,
			expected: "hello",
		},
		{
			name:     "legacy text completion",
			raw:      `{"choices":[{"text":"legacy"}]}`,
			expected: "legacy",
		},
		{
			name:     "single message",
			raw:      `{"message":{"content":"single"}}`,
			expected: "single",
		},
		{
			name:     "responses api",
			raw:      `{"output":[{"content":[{"type":"output_text","text":"resp"}]}]}`,
			expected: "resp",
		},
		{
			name:     "empty content is still text",
			raw:      `{"choices":[{"message":{"content":""}}]}`,
			expected: "",
		},
		{
			name:        "no completion",
			raw:         `{"id":"x"}`,
			expectError: true,
		},
		{
			name:        "invalid json",
			raw:         `{not json`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultCompletionExtractor([]byte(tt.raw))
			if tt.expectError {
				var extErr *ExtractionError
				if !errors.As(err, &extErr) {
					t.Fatalf("expected ExtractionError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDefaultUsageExtractor(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantPrompt     int
		wantCompletion int
		wantTotal      int
		expectError    bool
	}{
		{
			name:           "complete usage",
			raw:            `{"usage":{"prompt_tokens":100,"completion_tokens":50,"total_tokens":150}}`,
			wantPrompt:     100,
			wantCompletion: 50,
			wantTotal:      150,
		},
		{
			name:           "total derived",
			raw:            `{"usage":{"prompt_tokens":100,"completion_tokens":50}}`,
			wantPrompt:     100,
			wantCompletion: 50,
			wantTotal:      150,
		},
		{
			name:           "completion derived",
			raw:            `{"usage":{"prompt_tokens":100,"total_tokens":180}}`,
			wantPrompt:     100,
			wantCompletion: 80,
			wantTotal:      180,
		},
		{
			name:           "zero completion derived from total",
			raw:            `{"usage":{"prompt_tokens":100,"completion_tokens":0,"total_tokens":150}}`,
			wantPrompt:     100,
			wantCompletion: 50,
			wantTotal:      150,
		},
		{
			name:           "zero completion with matching total",
			raw:            `{"usage":{"prompt_tokens":100,"completion_tokens":0,"total_tokens":100}}`,
			wantPrompt:     100,
			wantCompletion: 0,
			wantTotal:      100,
		},
		{
			name:           "responses api names",
			raw:            `{"usage":{"input_tokens":10,"output_tokens":5,"total_tokens":15}}`,
			wantPrompt:     10,
			wantCompletion: 5,
			wantTotal:      15,
		},
		{
			name:        "missing usage block",
			raw:         `{"choices":[]}`,
			expectError: true,
		},
		{
			name:        "missing prompt tokens",
			raw:         `{"usage":{"completion_tokens":5}}`,
			expectError: true,
		},
		{
			name:        "only prompt tokens",
			raw:         `{"usage":{"prompt_tokens":5}}`,
			expectError: true,
		},
		{
			name:        "total below prompt",
			raw:         `{"usage":{"prompt_tokens":50,"total_tokens":10}}`,
			expectError: true,
		},
		{
			name:        "non-numeric tokens",
			raw:         `{"usage":{"prompt_tokens":"many","completion_tokens":1}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := DefaultUsageExtractor([]byte(tt.raw))
			if tt.expectError {
				var extErr *ExtractionError
				if !errors.As(err, &extErr) {
					t.Fatalf("expected ExtractionError, got %v", err)
				}
				if u != nil {
					t.Errorf("expected nil usage on error, got %+v", u)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.PromptTokens != tt.wantPrompt || u.CompletionTokens != tt.wantCompletion || u.TotalTokens != tt.wantTotal {
				t.Errorf("expected %d/%d/%d, got %d/%d/%d",
					tt.wantPrompt, tt.wantCompletion, tt.wantTotal,
					u.PromptTokens, u.CompletionTokens, u.TotalTokens)
			}
		})
	}
}
