package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/config"
)

var (
	cacheOutput string
	cacheAll    bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and invalidate cached responses",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached responses",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <file>... | --all",
	Short: "Drop cached responses so the files are sent again",
	RunE:  runCacheInvalidate,
}

func init() {
	cacheListCmd.Flags().StringVarP(&cacheOutput, "output", "o", "text", "output format (text, json, csv)")
	cacheInvalidateCmd.Flags().BoolVar(&cacheAll, "all", false, "drop every cached response")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

type cacheRow struct {
	FileName string    `json:"file_name"`
	CachedAt time.Time `json:"cached_at"`
	Bytes    int       `json:"bytes"`
}

type cacheListing []cacheRow

func (l cacheListing) Headers() []string {
	return []string{"FILE", "CACHED AT", "BYTES"}
}

func (l cacheListing) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		rows = append(rows, []string{r.FileName, r.CachedAt.Format(time.RFC3339), strconv.Itoa(r.Bytes)})
	}
	return rows
}

// openCacheApp opens only the configured cache.
func openCacheApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend == config.DisabledBackend {
		return nil, cli.NewConfigError("cache.backend", "the cache is disabled")
	}
	a, err := newBaseApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if err := a.openCache(); err != nil {
		return nil, err
	}
	return a, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(cacheOutput)
	if err != nil {
		return err
	}
	a, err := openCacheApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	names, err := a.cache.List(ctx)
	if err != nil {
		return cli.NewCommandError("cache list", err)
	}

	listing := make(cacheListing, 0, len(names))
	for _, name := range names {
		entry, ok, err := a.cache.Get(ctx, name)
		if err != nil {
			return cli.NewCommandError("cache list", err)
		}
		if !ok {
			continue
		}
		listing = append(listing, cacheRow{
			FileName: entry.FileName,
			CachedAt: entry.CachedAt,
			Bytes:    len(entry.RawResponse),
		})
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), listing)
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	if cacheAll == (len(args) > 0) {
		return cli.NewConfigError("invalidate", "name files to drop or pass --all")
	}
	a, err := openCacheApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	names := args
	if cacheAll {
		if names, err = a.cache.List(ctx); err != nil {
			return cli.NewCommandError("cache invalidate", err)
		}
	}
	for _, name := range names {
		if err := a.cache.Invalidate(ctx, name); err != nil {
			return cli.NewCommandError("cache invalidate", err)
		}
	}

	if a.badger != nil {
		if err := a.badger.RunGC(); err != nil {
			a.log.Warn("Cache garbage collection failed", "error", err)
		}
	}

	cli.PrintStatus(cmd.OutOrStdout(), cli.StatusSuccess, "Dropped %d cached response(s)", len(names))
	return nil
}
