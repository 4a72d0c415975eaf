package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/processing"
)

var demoPrompts = []string{
	"Summarize the quarterly report in two sentences.",
	"List three risks mentioned in the design review.",
}

var demoCmd = &cobra.Command{
	Use:   "demo [prompt]...",
	Short: "Run the pipeline against an offline echo provider",
	Long: `Run the full pipeline without an API key.

The demo provider answers every prompt with the prompt reversed and reports
a quarter of the characters as tokens. Responses go to an in-memory cache
and the SQLite ledger is disabled; the CSV usage log is written as usual.
The first prompt is sent twice so the second lookup is served from cache.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Provider.Type = "demo"
	cfg.Cache.Backend = "memory"
	cfg.Ledger.Database = config.DisabledBackend

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

	texts := args
	if len(texts) == 0 {
		texts = demoPrompts
	}
	jobs := make([]processing.Job, 0, len(texts)+1)
	for i, text := range texts {
		jobs = append(jobs, processing.Job{
			FileName: fmt.Sprintf("prompt-%d", i+1),
			Prompt:   text,
		})
	}
	jobs = append(jobs, jobs[0])

	_, err = a.executeBatch(ctx, jobs, batchOptions{
		workers: 1,
		status:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewCommandError("demo", err)
	}
	return nil
}
