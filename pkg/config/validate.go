package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "provider.model").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateProcessing(&cfg.Processing)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateBatch(&cfg.Batch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case "openai", "http", "demo":
	default:
		errs = append(errs, FieldError{
			Field:   "provider.type",
			Message: fmt.Sprintf("invalid provider type %q (must be openai, http, or demo)", cfg.Type),
		})
	}

	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
			})
		}
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "provider.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "provider.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

func validateProcessing(cfg *ProcessingConfig) []FieldError {
	var errs []FieldError

	if cfg.Tokens.CharsPerToken <= 0 {
		errs = append(errs, FieldError{
			Field:   "processing.tokens.chars_per_token",
			Message: "chars per token must be positive",
		})
	}

	errs = append(errs, validatePricing("processing.costs.default", cfg.Costs.Default)...)
	for model, p := range cfg.Costs.Pricing {
		errs = append(errs, validatePricing("processing.costs.pricing."+model, p)...)
	}

	return errs
}

func validatePricing(field string, p ModelPricingConfig) []FieldError {
	var errs []FieldError
	if p.Prompt < 0 {
		errs = append(errs, FieldError{Field: field + ".prompt", Message: "price must be non-negative"})
	}
	if p.Completion < 0 {
		errs = append(errs, FieldError{Field: field + ".completion", Message: "price must be non-negative"})
	}
	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "badger", "memory", DisabledBackend:
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("invalid cache backend %q (must be badger, memory, or none)", cfg.Backend),
		})
	}

	if cfg.Backend == "badger" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "cache.path",
			Message: "path is required for the badger backend",
		})
	}

	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	if cfg.CSVPath == "" {
		errs = append(errs, FieldError{Field: "ledger.csv_path", Message: "csv path is required"})
	}
	if cfg.ErrorLogPath == "" {
		errs = append(errs, FieldError{Field: "ledger.error_log_path", Message: "error log path is required"})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "ledger.busy_timeout", Message: "busy timeout must be positive"})
	}

	return errs
}

func validateBatch(cfg *BatchConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 1 {
		errs = append(errs, FieldError{Field: "batch.workers", Message: "workers must be at least 1"})
	}
	if cfg.RequestsPerMinute < 0 {
		errs = append(errs, FieldError{Field: "batch.requests_per_minute", Message: "requests per minute must be non-negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be in strictly increasing order",
			})
			break
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
