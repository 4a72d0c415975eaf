package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"

	"firekey-hq/tally/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style text.
	FormatText LogFormat = "text"
	// FormatConsole outputs colored, human-readable lines through zerolog.
	FormatConsole LogFormat = "console"
)

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text", "console")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// RedactSecrets masks API keys and bearer tokens in attributes
	RedactSecrets bool

	// Secrets are exact values that are always masked, e.g. the configured API key
	Secrets []string

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// FromConfig converts the logging section of the configuration.
func FromConfig(cfg *config.LoggingConfig) Config {
	c := Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
	}
	if cfg.RedactSecrets != nil {
		c.RedactSecrets = *cfg.RedactSecrets
	}
	return c
}

// Logger owns the handler chain and its adjustable level.
type Logger struct {
	slog   *slog.Logger
	level  *slog.LevelVar
	format LogFormat
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: levelVar, AddSource: cfg.AddSource})
	case FormatConsole:
		output := zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Stamp}
		zl := zerolog.New(output).With().Timestamp().Logger()
		handler = zeroslog.NewHandler(zl, &zeroslog.HandlerOptions{Level: levelVar, AddSource: cfg.AddSource})
	default:
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: levelVar, AddSource: cfg.AddSource})
	}

	handler = &contextHandler{next: handler}
	if cfg.RedactSecrets || len(cfg.Secrets) > 0 {
		handler = NewRedactor(cfg.Secrets...).Handler(handler)
	}

	return &Logger{
		slog:   slog.New(handler),
		level:  levelVar,
		format: format,
	}, nil
}

// Slog returns the underlying *slog.Logger handed to components.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Format returns the output format.
func (l *Logger) Format() LogFormat {
	return l.format
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level of this logger and every logger derived
// from it.
func (l *Logger) SetLevel(level string) error {
	lv, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(lv)
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelError, msg, args...)
}

// With creates a new logger with additional fields. The level stays shared.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		level:  l.level,
		format: l.format,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// ParseFormat parses a log format string into LogFormat.
func ParseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
