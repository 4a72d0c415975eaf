// Package logging builds the slog handler chain used across the module.
//
// # Overview
//
//   - JSON, text and console formats; console renders through zerolog's
//     ConsoleWriter via the zeroslog bridge
//   - API keys and bearer tokens are masked when RedactSecrets is set
//   - Run ID, file and model are taken from the context by the *Context
//     logging methods
//   - The level can be changed at runtime with SetLevel
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "console",
//	    RedactSecrets: true,
//	    Secrets:       []string{cfg.Provider.APIKey},
//	})
//
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithRunID(ctx, run.ID())
//	logger.Slog().InfoContext(ctx, "Batch started")  // includes run_id
//
// Components take a *slog.Logger and tag themselves with a "component"
// attribute.
package logging
