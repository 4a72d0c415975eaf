package config

import "time"

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProviderType        = "openai"
	DefaultProviderModel       = "gpt-4o-mini"
	DefaultProviderTemperature = 0.4
	DefaultProviderTimeout     = 60 * time.Second

	// Processing defaults
	DefaultTokensCharsPerToken = 4.0
	DefaultPromptPricing       = 0.00015 // $ per 1K prompt tokens
	DefaultCompletionPricing   = 0.0006  // $ per 1K completion tokens

	// Cache defaults
	DefaultCacheBackend = "badger"
	DefaultCachePath    = "cache"

	// Ledger defaults
	DefaultLedgerCSVPath      = "logs/usage.csv"
	DefaultLedgerErrorLogPath = "logs/firekey-errors.txt"
	DefaultLedgerDatabase     = "data/ledger.db"
	DefaultLedgerBusyTimeout  = 5 * time.Second

	// Batch defaults
	DefaultBatchWorkers = 1

	// Telemetry defaults
	DefaultLoggingLevel        = "warn"
	DefaultLoggingFormat       = "console"
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "firekey"
	DefaultMetricsSubsystem    = "tally"
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingSampleRatio  = 1.0
	DefaultTracingServiceName  = "firekey"
	DisabledBackend            = "none"
)

// DefaultPricing returns the built-in per-1K-token pricing table.
// Entries in the configuration file are merged over it.
func DefaultPricing() map[string]ModelPricingConfig {
	return map[string]ModelPricingConfig{
		"gpt-4o-mini":   {Prompt: 0.00015, Completion: 0.0006},
		"gpt-4o":        {Prompt: 0.0025, Completion: 0.01},
		"gpt-4.1":       {Prompt: 0.002, Completion: 0.008},
		"gpt-4.1-mini":  {Prompt: 0.0004, Completion: 0.0016},
		"gpt-4.1-nano":  {Prompt: 0.0001, Completion: 0.0004},
		"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
		"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Provider defaults
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = DefaultProviderType
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = DefaultProviderTemperature
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}

	applyProcessingDefaults(cfg)

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}

	// Ledger defaults
	if cfg.Ledger.CSVPath == "" {
		cfg.Ledger.CSVPath = DefaultLedgerCSVPath
	}
	if cfg.Ledger.ErrorLogPath == "" {
		cfg.Ledger.ErrorLogPath = DefaultLedgerErrorLogPath
	}
	if cfg.Ledger.Database == "" {
		cfg.Ledger.Database = DefaultLedgerDatabase
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = DefaultLedgerBusyTimeout
	}

	// Batch defaults
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = DefaultBatchWorkers
	}

	applyTelemetryDefaults(cfg)
}

// applyProcessingDefaults fills in token and pricing defaults.
// Configured pricing entries win over the built-in table.
func applyProcessingDefaults(cfg *Config) {
	if cfg.Processing.Tokens.CharsPerToken == 0 {
		cfg.Processing.Tokens.CharsPerToken = DefaultTokensCharsPerToken
	}

	if cfg.Processing.Costs.Default.Prompt == 0 && cfg.Processing.Costs.Default.Completion == 0 {
		cfg.Processing.Costs.Default = ModelPricingConfig{
			Prompt:     DefaultPromptPricing,
			Completion: DefaultCompletionPricing,
		}
	}

	pricing := DefaultPricing()
	for model, p := range cfg.Processing.Costs.Pricing {
		pricing[model] = p
	}
	cfg.Processing.Costs.Pricing = pricing
}

func applyTelemetryDefaults(cfg *Config) {
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.RedactSecrets == nil {
		redact := true
		cfg.Telemetry.Logging.RedactSecrets = &redact
	}

	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60}
	}

	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
