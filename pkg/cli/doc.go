/*
Package cli provides command-line helpers used by the firekey command.

Output Formatting:

Command results are printed as aligned text, JSON or CSV. Tabular results
implement Table:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, runs); err != nil {
		return err
	}

Progress Reporting:

A batch drives the progress bar from its outcome handler:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(jobs)))
	// for each finished file
	progress.Increment()
	progress.Finish()

Status lines are colored with fatih/color:

	cli.PrintStatus(os.Stdout, cli.StatusSuccess, "%s processed", file)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps command errors to process exit codes; *ConfigError exits with
ExitConfig and cancellation with ExitInterrupted.
*/
package cli
