package main

import (
	"time"

	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/config"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old runs from the SQLite ledger",
	Long: `Delete finished runs, and their usage records, from the SQLite ledger.

The CSV usage log is append-only and never pruned.`,
	Example: `  firekey prune --older-than 720h`,
	Args:    cobra.NoArgs,
	RunE:    runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 90*24*time.Hour, "delete runs started longer ago than this")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneOlderThan <= 0 {
		return cli.NewConfigError("older-than", "must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Database == config.DisabledBackend {
		return cli.NewConfigError("ledger.database", "the ledger database is disabled")
	}

	a, err := newBaseApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.openStore(); err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.store.Prune(cmd.Context(), time.Now().Add(-pruneOlderThan))
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	cli.PrintStatus(cmd.OutOrStdout(), cli.StatusSuccess, "Deleted %d run(s)", deleted)
	return nil
}
