package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"firekey-hq/tally/internal/mock"
	"firekey-hq/tally/pkg/cache"
	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/client"
	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/ledger"
	"firekey-hq/tally/pkg/ledger/storage"
	"firekey-hq/tally/pkg/processing/costs"
	"firekey-hq/tally/pkg/processing/tokens"
	"firekey-hq/tally/pkg/providers"
	openaicaller "firekey-hq/tally/pkg/providers/openai"
	"firekey-hq/tally/pkg/telemetry/logging"
	"firekey-hq/tally/pkg/telemetry/metrics"
	"firekey-hq/tally/pkg/telemetry/tracing"
	"firekey-hq/tally/pkg/usage"
)

// app holds the components of one command invocation. Fields that a command
// does not need stay nil.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	log    *slog.Logger
	out    io.Writer

	calculator *costs.Calculator
	tracker    *usage.Tracker
	client     *client.Client
	cache      *cache.ResponseCache
	badger     *cache.BadgerStore
	csv        *ledger.CSVLogger
	errorLog   *ledger.ErrorLog
	store      *storage.SQLiteStore
	metrics    *metrics.Collector
	tracer     *tracing.Tracer

	closers []func() error
}

// loadConfig loads the config file with environment overrides. A missing
// file yields defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newBaseApp sets up logging only; commands add the components they use.
func newBaseApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	lc := logging.FromConfig(&cfg.Telemetry.Logging)
	if cfg.Provider.APIKey != "" {
		lc.Secrets = []string{cfg.Provider.APIKey}
	}
	lc.Writer = errOut
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	return &app{
		cfg:    cfg,
		logger: logger,
		log:    logger.Slog(),
		out:    out,
	}, nil
}

// newApp builds the full pipeline used by run and demo.
func newApp(ctx context.Context, cfg *config.Config, out, errOut io.Writer) (*app, error) {
	a, err := newBaseApp(cfg, out, errOut)
	if err != nil {
		return nil, err
	}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg := a.cfg

	var err error
	a.tracer, err = tracing.New(ctx, &cfg.Telemetry.Tracing, tracing.WithGlobal())
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.tracer.Shutdown(ctx)
	})

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.calculator = costs.NewCalculator(&cfg.Processing.Costs)
	a.tracker = usage.NewTracker(tokens.NewSimpleEstimator(&cfg.Processing.Tokens),
		usage.WithSink(a.out),
		usage.WithLogger(a.log),
	)

	caller, err := newCaller(cfg.Provider, a.log)
	if err != nil {
		return err
	}
	if c, ok := caller.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.errorLog = ledger.NewErrorLog(cfg.Ledger.ErrorLogPath)
	a.client = client.New(caller, a.tracker, a.calculator,
		client.WithDefaultModel(cfg.Provider.Model),
		client.WithErrorLog(a.errorLog),
		client.WithObserver(a.metrics),
		client.WithTracer(a.tracer.Tracer()),
		client.WithLogger(a.log),
	)

	if err := a.openCache(); err != nil {
		return err
	}

	a.csv, err = ledger.NewCSVLogger(cfg.Ledger.CSVPath,
		ledger.WithSyncWrites(cfg.Ledger.SyncWrites),
		ledger.WithLogger(a.log),
	)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.csv.Close)

	return a.openStore()
}

// openCache opens the configured response cache. Backend "none" leaves it nil.
func (a *app) openCache() error {
	var store cache.Store
	switch a.cfg.Cache.Backend {
	case "badger":
		b, err := cache.NewBadgerStore(cache.BadgerConfig{Path: a.cfg.Cache.Path, Logger: a.log})
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		a.badger = b
		store = b
	case "memory":
		store = cache.NewMemoryStore()
	case config.DisabledBackend:
		return nil
	default:
		return cli.NewConfigError("cache.backend", fmt.Sprintf("unknown backend %q", a.cfg.Cache.Backend))
	}

	opts := []cache.Option{cache.WithLogger(a.log)}
	if a.metrics != nil {
		opts = append(opts, cache.WithObserver(a.metrics))
	}
	a.cache = cache.New(store, opts...)
	a.closers = append(a.closers, a.cache.Close)
	return nil
}

// openStore opens the SQLite ledger. Database "none" leaves it nil.
func (a *app) openStore() error {
	if a.cfg.Ledger.Database == config.DisabledBackend {
		return nil
	}
	store, err := storage.Open(storage.Config{
		Path:        a.cfg.Ledger.Database,
		BusyTimeout: a.cfg.Ledger.BusyTimeout,
		Logger:      a.log,
	})
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return nil
}

// Close releases everything in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newCaller selects the provider implementation.
func newCaller(cfg config.ProviderConfig, logger *slog.Logger) (providers.Caller, error) {
	switch cfg.Type {
	case "openai":
		return openaicaller.NewCaller(cfg, logger), nil
	case "http":
		return providers.NewHTTPCaller(providers.HTTPCallerConfig{
			Name:        "http",
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
		}, logger), nil
	case "demo":
		return mock.ReverseCaller{}, nil
	default:
		return nil, cli.NewConfigError("provider.type", fmt.Sprintf("unknown provider type %q", cfg.Type))
	}
}
