package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/proxyfinder/internal/database"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clean the candidate list cache",
		Long: `Downloaded proxy lists are cached in a local SQLite database so repeated
runs do not hammer the list providers. These commands inspect and clean it.`,
	}

	cmd.PersistentFlags().String("db-dir", "", "Cache database directory (default: XDG data directory)")

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePurgeCmd())

	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show cached source lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			entries, err := cache.ListSources(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tCANDIDATES\tFETCHED\tAGE\tFINGERPRINT")
			now := time.Now()
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					e.Source,
					e.Count,
					e.FetchedAt.Local().Format(time.DateTime),
					now.Sub(e.FetchedAt).Round(time.Second),
					shortFingerprint(e.Fingerprint),
				)
			}
			return tw.Flush()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached source list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached source lists\n", n)
			return nil
		},
	}
}

func newCachePurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove cached source lists older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive: %s", olderThan)
			}

			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Purge(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached source lists older than %s\n", n, olderThan)
			return nil
		},
	}

	cmd.Flags().Duration("older-than", 24*time.Hour, "Remove lists fetched longer ago than this")
	return cmd
}

// openCache opens the cache database in --db-dir, or in the XDG data
// directory when the flag is not set.
func openCache(cmd *cobra.Command) (*database.CandidateCache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.DBDir = dir
	}

	cache, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache in %s: %w", cfg.DBDir, err)
	}
	return cache, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
