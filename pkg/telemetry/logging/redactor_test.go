package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor("hunter2-long-secret")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no secrets", "processed a.txt", "processed a.txt"},
		{"openai key", "key sk-proj1234567890abcd used", "key sk-*** used"},
		{"bearer token", "Authorization: Bearer abc.def-ghi", "Authorization: Bearer ***"},
		{"api key query", "url?api_key=abcdef&x=1", "url?api_key=***&x=1"},
		{"configured secret", "token hunter2-long-secret leaked", "token hunt*** leaked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_RedactArgs(t *testing.T) {
	r := NewRedactor()

	got := r.RedactArgs("api_key", "abcdefgh", "file", "a.txt", "total_tokens", 300, "msg", "sk-abcdefghijkl")

	if got[1] != "abcd***" {
		t.Errorf("expected sensitive key value masked, got %v", got[1])
	}
	if got[3] != "a.txt" {
		t.Errorf("expected plain value untouched, got %v", got[3])
	}
	if got[5] != 300 {
		t.Errorf("expected token count untouched, got %v", got[5])
	}
	if got[7] != "sk-***" {
		t.Errorf("expected key pattern masked, got %v", got[7])
	}

	if len(r.RedactArgs()) != 0 {
		t.Error("expected empty args to stay empty")
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r := NewRedactor()

	attr := r.RedactAttr(slog.Group("provider",
		slog.String("authorization", "Bearer xyz"),
		slog.Int("total_tokens", 42),
	))
	group := attr.Value.Group()
	if len(group) != 2 {
		t.Fatalf("expected 2 group attrs, got %d", len(group))
	}
	if strings.Contains(group[0].Value.String(), "xyz") {
		t.Errorf("expected authorization masked, got %q", group[0].Value.String())
	}
	if group[1].Value.Int64() != 42 {
		t.Errorf("expected tokens untouched, got %v", group[1].Value)
	}

	errAttr := r.RedactAttr(slog.Any("error", errors.New("401 for key sk-abcdefghijkl")))
	if strings.Contains(errAttr.Value.String(), "abcdefghijkl") {
		t.Errorf("expected error text redacted, got %q", errAttr.Value.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"api_key", true},
		{"APIKey", true},
		{"client_secret", true},
		{"token", true},
		{"Authorization", true},
		{"total_tokens", false},
		{"prompt_tokens", false},
		{"file", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSensitiveKey(tt.key); got != tt.want {
				t.Errorf("isSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "***"},
		{"sk-abcdef", "sk-a***"},
	}

	for _, tt := range tests {
		if got := RedactAPIKey(tt.input); got != tt.want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
