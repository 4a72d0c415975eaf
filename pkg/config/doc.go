// Package config provides configuration management for FireKey Tally.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// from the environment and validated before use. A missing file is not an
// error; the defaults describe a working local setup.
//
//	cfg, err := config.LoadConfigWithEnvOverrides("firekey.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention FIREKEY_SECTION_FIELD:
//
//   - FIREKEY_PROVIDER_MODEL overrides provider.model
//   - FIREKEY_LEDGER_CSV_PATH overrides ledger.csv_path
//   - FIREKEY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// OPENAI_API_KEY sets provider.api_key unless FIREKEY_PROVIDER_API_KEY is set.
//
// # Pricing
//
// processing.costs.pricing entries are merged over the built-in table returned
// by DefaultPricing. Models absent from both fall back to processing.costs.default.
// Watcher reloads the file on change so pricing updates apply to a running batch.
//
// # Retry
//
// The retry policy (3 attempts, 3 seconds apart) is fixed and has no
// configuration section.
package config
