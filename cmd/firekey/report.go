package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/ledger/storage"
	"firekey-hq/tally/pkg/usage"
)

var (
	reportOutput string
	reportLimit  int
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show recorded runs from the SQLite ledger",
	Long: `Show recorded runs from the SQLite ledger.

Without arguments the most recent runs are listed with their totals. With a
run ID the usage records of that run are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "text", "output format (text, json, csv)")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 20, "number of runs to list (0 = all)")
	rootCmd.AddCommand(reportCmd)
}

type runRow struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Files       int        `json:"files"`
	TotalTokens int        `json:"total_tokens"`
	TotalCost   string     `json:"total_cost"`
}

type runTable []runRow

func (t runTable) Headers() []string {
	return []string{"RUN", "STARTED", "FILES", "TOKENS", "COST", "STATUS"}
}

func (t runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		status := "finished"
		if r.FinishedAt == nil {
			status = "open"
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Files),
			strconv.Itoa(r.TotalTokens),
			"$" + r.TotalCost,
			status,
		})
	}
	return rows
}

func newRunRow(info *storage.RunInfo) runRow {
	return runRow{
		ID:          info.ID,
		StartedAt:   info.StartedAt,
		FinishedAt:  info.FinishedAt,
		Files:       info.FileCount,
		TotalTokens: info.TotalTokens,
		TotalCost:   info.TotalCost.StringFixed(6),
	}
}

type recordRow struct {
	FileName      string    `json:"file_name"`
	Model         string    `json:"model"`
	Tokens        int       `json:"tokens"`
	Cost          string    `json:"cost"`
	CostEstimated bool      `json:"cost_estimated"`
	Timestamp     time.Time `json:"timestamp"`
}

type recordTable []recordRow

func (t recordTable) Headers() []string {
	return []string{"FILE", "MODEL", "TOKENS", "COST", "ESTIMATED", "TIME"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.FileName,
			r.Model,
			strconv.Itoa(r.Tokens),
			"$" + r.Cost,
			strconv.FormatBool(r.CostEstimated),
			r.Timestamp.Local().Format(time.DateTime),
		})
	}
	return rows
}

func newRecordTable(records []*usage.Record) recordTable {
	t := make(recordTable, 0, len(records))
	for _, rec := range records {
		t = append(t, recordRow{
			FileName:      rec.FileName,
			Model:         rec.Model,
			Tokens:        rec.Tokens(),
			Cost:          rec.Cost.StringFixed(6),
			CostEstimated: rec.CostEstimated,
			Timestamp:     rec.Timestamp,
		})
	}
	return t
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(reportOutput)
	if err != nil {
		return err
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

	ctx := cmd.Context()
	formatter := cli.NewFormatter(format)

	if len(args) == 1 {
		if _, err := a.store.GetRun(ctx, args[0]); err != nil {
			return cli.NewCommandError("report", fmt.Errorf("%s: %w", args[0], err))
		}
		records, err := a.store.Records(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("report", err)
		}
		return formatter.FormatTo(cmd.OutOrStdout(), newRecordTable(records))
	}

	runs, err := a.store.Runs(ctx, reportLimit)
	if err != nil {
		return cli.NewCommandError("report", err)
	}
	table := make(runTable, 0, len(runs))
	total := decimal.Zero
	for _, info := range runs {
		table = append(table, newRunRow(info))
		total = total.Add(info.TotalCost)
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), table); err != nil {
		return err
	}
	if format == cli.FormatText && len(runs) > 0 {
		cli.PrintStatus(cmd.OutOrStdout(), cli.StatusInfo, "%d run(s), $%s total", len(runs), total.StringFixed(6))
	}
	return nil
}
