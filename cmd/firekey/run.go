package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/processing"
	"firekey-hq/tally/pkg/prompts"
	"firekey-hq/tally/pkg/telemetry/health"
)

var (
	runForce        bool
	runModel        string
	runTemplatesDir string
	runTemplate     string
	runDocType      string
	runMetricsAddr  string
	runWorkers      int
	runProgress     bool
	runWatchConfig  bool
)

var runCmd = &cobra.Command{
	Use:   "run <file|dir>...",
	Short: "Process files through the language-model API",
	Long: `Process files through the language-model API.

Every file is looked up in the response cache first. On a miss it is sent
to the provider (3 attempts, 3 seconds apart), the usage is printed and
appended to the CSV log, and the response is cached under the file name.
The run always ends with one summary row in the CSV log.

Directories expand to the regular files directly inside them.`,
	Example: `  firekey run notes/a.txt notes/b.txt
  firekey run --force-reprocess --workers 4 notes/
  firekey run --template summarize.json --type "meeting notes" notes/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force-reprocess", false, "ignore cached responses and call the API for every file")
	runCmd.Flags().StringVar(&runModel, "model", "", "model to use (default from config)")
	runCmd.Flags().StringVar(&runTemplatesDir, "templates", "prompts", "prompt template directory")
	runCmd.Flags().StringVar(&runTemplate, "template", "", "template file name inside --templates")
	runCmd.Flags().StringVar(&runDocType, "type", "document", "value substituted for {type} in the template")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "files processed concurrently (default from config)")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress bar instead of per-file lines")
	runCmd.Flags().BoolVar(&runWatchConfig, "watch-config", false, "reload pricing and log level when the config file changes")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runMetricsAddr != "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Address = runMetricsAddr
	}
	if runWorkers > 0 {
		cfg.Batch.Workers = runWorkers
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.log.Error("Failed to close resources", "error", cerr)
		}
	}()

	opts := batchOptions{
		force:    runForce,
		workers:  cfg.Batch.Workers,
		rpm:      cfg.Batch.RequestsPerMinute,
		docType:  runDocType,
		status:   cmd.ErrOrStderr(),
		progress: runProgress,
	}
	if runTemplate != "" {
		opts.template, err = loadTemplate(runTemplatesDir, runTemplate, a)
		if err != nil {
			return err
		}
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Address != "" {
		routes := a.healthChecker().Routes(Version, GitCommit, BuildDate)
		if _, err := a.metrics.Serve(ctx, cfg.Telemetry.Metrics.Address, cfg.Telemetry.Metrics.Path, a.log, routes); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	if runWatchConfig {
		stop, err := a.watchConfig(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer stop()
	}

	jobs, err := processing.JobsFromPaths(args, runModel)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	report, err := a.executeBatch(ctx, jobs, opts)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if report.Failed > 0 {
		return cli.NewCommandError("run", fmt.Errorf("%d of %d files failed", report.Failed, len(jobs)))
	}
	return nil
}

func loadTemplate(dir, name string, a *app) (*prompts.Template, error) {
	repo, err := prompts.NewRepository(dir, a.log)
	if err != nil {
		return nil, cli.NewConfigError("templates", err.Error())
	}
	t, ok := repo.Get(filepath.Base(name))
	if !ok {
		return nil, cli.NewConfigError("template", fmt.Sprintf("template %q not found in %s", name, dir))
	}
	return t, nil
}

// healthChecker registers a readiness check per open ledger and cache.
func (a *app) healthChecker() *health.Checker {
	checker := health.New(2 * time.Second)
	checker.Register("csv", a.csv.Check)
	if a.store != nil {
		checker.Register("ledger", a.store.Ping)
	}
	if a.cache != nil {
		checker.Register("cache", func(ctx context.Context) error {
			_, err := a.cache.List(ctx)
			return err
		})
	}
	return checker
}

// watchConfig applies pricing and log level changes while a batch runs.
// The returned function stops the watcher.
func (a *app) watchConfig(ctx context.Context, path string) (func(), error) {
	w, err := config.NewWatcher(path, 500*time.Millisecond, a.log)
	if err != nil {
		return nil, cli.NewCommandError("watch-config", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := w.Watch(ctx, func(cfg *config.Config) {
			a.calculator.UpdatePricing(&cfg.Processing.Costs)
			if err := a.logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
				a.log.Warn("Ignoring log level change", "error", err)
			}
		})
		if err != nil {
			a.log.Error("Config watcher stopped", "error", err)
		}
	}()

	return func() {
		if err := w.Stop(); err != nil {
			a.log.Warn("Failed to stop config watcher", "error", err)
		}
		<-done
	}, nil
}
