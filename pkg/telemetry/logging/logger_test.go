package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"firekey-hq/tally/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json", RedactSecrets: true},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "valid console config",
			config: Config{Level: "warn", Format: "console", RedactSecrets: true},
		},
		{
			name:   "empty config uses defaults",
			config: Config{},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("Processed file", "file", "a.txt", "tokens", 300)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "Processed file" {
		t.Errorf("expected msg %q, got %v", "Processed file", entry["msg"])
	}
	if entry["file"] != "a.txt" {
		t.Errorf("expected file %q, got %v", "a.txt", entry["file"])
	}
	if entry["tokens"] != float64(300) {
		t.Errorf("expected tokens 300, got %v", entry["tokens"])
	}
}

func TestLogger_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Warn("Retrying call", "attempt", 2)

	out := buf.String()
	if !strings.Contains(out, "Retrying call") {
		t.Errorf("expected message in console output, got %q", out)
	}
	if !strings.Contains(out, "attempt") {
		t.Errorf("expected attribute in console output, got %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	for _, hidden := range []string{"debug message", "info message"} {
		if strings.Contains(out, hidden) {
			t.Errorf("expected %q to be filtered, got %q", hidden, out)
		}
	}
	for _, shown := range []string{"warn message", "error message"} {
		if !strings.Contains(out, shown) {
			t.Errorf("expected %q in output, got %q", shown, out)
		}
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	child := logger.With("component", "client")

	child.Debug("before")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	child.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("expected debug record before SetLevel to be dropped, got %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("expected derived logger to follow the new level, got %q", out)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("expected level debug, got %v", logger.Level())
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{
		Level:   "info",
		Format:  "json",
		Secrets: []string{"custom-secret-value"},
		Writer:  &buf,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("api_key", "sk-abcdefghijklmnop").Info("Calling provider custom-secret-value",
		"header", "Bearer abc.def.ghi",
	)

	out := buf.String()
	for _, leaked := range []string{"sk-abcdefghijklmnop", "custom-secret-value", "abc.def.ghi"} {
		if strings.Contains(out, leaked) {
			t.Errorf("expected %q to be redacted, got %q", leaked, out)
		}
	}
}

func TestLogger_NoRedactionByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("plain", "note", "sk-abcdefghijklmnop")
	if !strings.Contains(buf.String(), "sk-abcdefghijklmnop") {
		t.Errorf("expected value untouched without redaction, got %q", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	redact := true
	cfg := FromConfig(&config.LoggingConfig{
		Level:         "debug",
		Format:        "console",
		AddSource:     true,
		RedactSecrets: &redact,
	})

	if cfg.Level != "debug" || cfg.Format != "console" {
		t.Errorf("expected debug/console, got %s/%s", cfg.Level, cfg.Format)
	}
	if !cfg.AddSource {
		t.Error("expected AddSource to carry over")
	}
	if !cfg.RedactSecrets {
		t.Error("expected RedactSecrets to carry over")
	}

	if FromConfig(&config.LoggingConfig{}).RedactSecrets {
		t.Error("expected RedactSecrets false when unset")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    LogFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"TEXT", FormatText, false},
		{"console", FormatConsole, false},
		{"xml", FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
