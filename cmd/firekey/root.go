package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "firekey",
	Short: "FireKey Tally - reliable, accounted language-model calls",
	Long: `FireKey Tally sends files through a language-model API and accounts for
every call.

Each file is sent once per run. Failed attempts are retried (3 attempts,
3 seconds apart), successful responses are cached per file name, and every
live call is appended to a CSV usage log that ends each run with exactly one
summary row.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnv,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "firekey.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config (missing file is ignored)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadEnv loads the dotenv file. Variables already set in the environment win.
func loadEnv(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cli.NewConfigError("env-file", err.Error())
	}
	return nil
}
