package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// A missing file is not an error: the defaults are returned instead.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FIREKEY_SECTION_FIELD (e.g., FIREKEY_PROVIDER_MODEL).
// OPENAI_API_KEY is honoured when FIREKEY_PROVIDER_API_KEY is unset.
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Provider overrides
	if val := os.Getenv("FIREKEY_PROVIDER_TYPE"); val != "" {
		cfg.Provider.Type = val
	}
	if val := os.Getenv("FIREKEY_PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("FIREKEY_PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("FIREKEY_PROVIDER_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("FIREKEY_PROVIDER_TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Provider.Temperature = f
		}
	}
	if val := os.Getenv("FIREKEY_PROVIDER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Provider.Timeout = d
		}
	}

	// Processing overrides
	if val := os.Getenv("FIREKEY_PROCESSING_TOKENS_CHARS_PER_TOKEN"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Processing.Tokens.CharsPerToken = f
		}
	}

	// Cache overrides
	if val := os.Getenv("FIREKEY_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("FIREKEY_CACHE_PATH"); val != "" {
		cfg.Cache.Path = val
	}

	// Ledger overrides
	if val := os.Getenv("FIREKEY_LEDGER_CSV_PATH"); val != "" {
		cfg.Ledger.CSVPath = val
	}
	if val := os.Getenv("FIREKEY_LEDGER_ERROR_LOG_PATH"); val != "" {
		cfg.Ledger.ErrorLogPath = val
	}
	if val := os.Getenv("FIREKEY_LEDGER_DATABASE"); val != "" {
		cfg.Ledger.Database = val
	}
	if val := os.Getenv("FIREKEY_LEDGER_SYNC_WRITES"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Ledger.SyncWrites = b
		}
	}

	// Batch overrides
	if val := os.Getenv("FIREKEY_BATCH_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Batch.Workers = i
		}
	}
	if val := os.Getenv("FIREKEY_BATCH_REQUESTS_PER_MINUTE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Batch.RequestsPerMinute = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("FIREKEY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_METRICS_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.Address = val
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("FIREKEY_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
