package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for proxyfinder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxyfinder",
		Short: "Find working public proxies",
		Long: `proxyfinder downloads public HTTP, HTTPS, SOCKS4 and SOCKS5 proxy lists,
checks every proxy concurrently by fetching a URL through it, and prints
the proxies that returned HTTP 200.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .proxyfinder in current or home directory)")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log output format (text, json)")

	cmd.AddCommand(NewFindCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
