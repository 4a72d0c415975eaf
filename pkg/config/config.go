package config

import "time"

// Config is the root configuration structure for FireKey Tally.
// It contains all configuration sections for the upstream provider, cost
// accounting, the response cache, the usage ledger, batch processing and
// telemetry.
type Config struct {
	// Provider contains configuration for the reference language-model client.
	Provider ProviderConfig `yaml:"provider"`

	// Processing contains configuration for token estimation and cost calculation.
	Processing ProcessingConfig `yaml:"processing"`

	// Cache contains configuration for the per-file response cache.
	Cache CacheConfig `yaml:"cache"`

	// Ledger contains configuration for the durable usage ledger
	// (CSV log, error log and SQLite database).
	Ledger LedgerConfig `yaml:"ledger"`

	// Batch contains configuration for batch processing of files.
	Batch BatchConfig `yaml:"batch"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderConfig contains configuration for the language-model API client.
type ProviderConfig struct {
	// Type selects the client implementation.
	// Options: "openai" (SDK), "http" (any OpenAI-compatible endpoint), "demo"
	// Default: "openai"
	Type string `yaml:"type"`

	// BaseURL overrides the API base URL (optional).
	BaseURL string `yaml:"base_url"`

	// APIKey is the API key sent with every request.
	// Usually supplied through OPENAI_API_KEY rather than the file.
	APIKey string `yaml:"api_key"`

	// Model is the model used when a request does not name one.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Temperature is the sampling temperature ("creativity").
	// Default: 0.4
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds a single request attempt.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// ProcessingConfig contains configuration for token and cost accounting.
type ProcessingConfig struct {
	// Tokens contains token estimation configuration.
	Tokens TokensConfig `yaml:"tokens"`

	// Costs contains cost calculation configuration.
	Costs CostsConfig `yaml:"costs"`
}

// TokensConfig contains token estimation configuration.
type TokensConfig struct {
	// CharsPerToken is the characters-per-token ratio used for estimation.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// CostsConfig contains cost calculation configuration.
type CostsConfig struct {
	// Default is the pricing used for models missing from Pricing.
	Default ModelPricingConfig `yaml:"default"`

	// Pricing contains per-model pricing keyed by model name.
	Pricing map[string]ModelPricingConfig `yaml:"pricing"`
}

// ModelPricingConfig contains pricing for a specific model.
type ModelPricingConfig struct {
	// Prompt is the cost per 1K prompt tokens in USD.
	Prompt float64 `yaml:"prompt"`

	// Completion is the cost per 1K completion tokens in USD.
	Completion float64 `yaml:"completion"`
}

// CacheConfig contains configuration for the per-file response cache.
type CacheConfig struct {
	// Backend selects the cache store.
	// Options: "badger", "memory", "none"
	// Default: "badger"
	Backend string `yaml:"backend"`

	// Path is the BadgerDB directory.
	// Default: "cache"
	Path string `yaml:"path"`
}

// LedgerConfig contains configuration for the durable usage ledger.
type LedgerConfig struct {
	// CSVPath is the append-only usage CSV log.
	// Default: "logs/usage.csv"
	CSVPath string `yaml:"csv_path"`

	// ErrorLogPath is the append-only plain-text error log.
	// Default: "logs/firekey-errors.txt"
	ErrorLogPath string `yaml:"error_log_path"`

	// SyncWrites fsyncs the CSV file after every appended row.
	// Default: false
	SyncWrites bool `yaml:"sync_writes"`

	// Database is the SQLite ledger database path ("none" disables it).
	// Default: "data/ledger.db"
	Database string `yaml:"database"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// BatchConfig contains configuration for batch processing.
type BatchConfig struct {
	// Workers is the number of files processed concurrently.
	// Default: 1 (sequential)
	Workers int `yaml:"workers"`

	// RequestsPerMinute paces live calls (0 = unlimited).
	// Default: 0
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "warn"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys in log attributes.
	// Default: true (see applyTelemetryDefaults)
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the listen address for the Prometheus endpoint (empty = not served).
	Address string `yaml:"address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "firekey"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "tally"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for call duration (seconds).
	// Default: [0.25, 0.5, 1, 2, 5, 10, 30, 60]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of calls traced (0.0 - 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "firekey"
	ServiceName string `yaml:"service_name"`
}
