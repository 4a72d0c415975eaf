package logging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []*redactPattern
	secrets  []string
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in patterns. Each non-empty
// secret is additionally masked wherever it appears.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{
		patterns: []*redactPattern{
			// OpenAI-style keys
			{regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{8,}`), "sk-***"},
			{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
			{regexp.MustCompile(`(?i)(api[-_]?key)([=:]\s*)[^\s&"]+`), "$1$2***"},
		},
	}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// RedactString masks credentials in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, s := range r.secrets {
		value = strings.ReplaceAll(value, s, RedactAPIKey(s))
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactArgs redacts variadic key/value log arguments.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}
	return redacted
}

// RedactAttr redacts a single slog attribute, recursing into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactAPIKey(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// Handler wraps next so every record and bound attribute is redacted.
func (r *Redactor) Handler(next slog.Handler) slog.Handler {
	return &redactingHandler{redactor: r, next: next}
}

type redactingHandler struct {
	redactor *Redactor
	next     slog.Handler
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &redactingHandler{redactor: h.redactor, next: h.next.WithAttrs(redacted)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{redactor: h.redactor, next: h.next.WithGroup(name)}
}

// isSensitiveKey checks if a key name indicates a credential.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range []string{"api_key", "apikey", "secret", "token", "authorization", "password"} {
		if strings.Contains(lowerKey, sensitive) && !strings.HasSuffix(lowerKey, "tokens") {
			return true
		}
	}
	return false
}

func redactValue(value any) any {
	switch v := value.(type) {
	case string:
		return RedactAPIKey(v)
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// RedactAPIKey keeps the first 4 characters of a key for identification.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
