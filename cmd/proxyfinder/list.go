package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/proxyfinder/internal/model"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate proxies without checking them",
		Long: `List downloads the configured proxy lists and prints the deduplicated
candidates as protocol://ip:port, one per line. Nothing is checked.

Examples:
  # Print every candidate from the built-in sources
  proxyfinder list

  # Only SOCKS proxies, at most 50, saved to a file
  proxyfinder list --protocol socks4,socks5 -p 50 -o socks.txt`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write candidates to a file instead of stdout")
	cmd.Flags().StringSlice("protocol", nil, "Only list candidates using these protocols (http, https, socks4, socks5)")
	cmd.Flags().IntP("max-proxies", "p", 0, "Max number of candidates to list; 0 lists all")
	addSourceFlags(cmd)

	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySourceFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateSources(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("max-proxies")
	if err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("--max-proxies must not be negative: %d", limit)
	}
	names, err := cmd.Flags().GetStringSlice("protocol")
	if err != nil {
		return err
	}
	protocols, err := parseProtocols(names)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger := setupLogger(stderr, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := newDiscoveryStack(ctx, cfg, stderr, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	candidates, err := stack.registry.Discover(ctx)
	if err != nil {
		return err
	}
	candidates = filterCandidates(candidates, protocols, limit)

	w := cmd.OutOrStdout()
	if output != "" {
		file, err := createOutputFile(output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	var sb strings.Builder
	for _, c := range candidates {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	if _, err := fmt.Fprint(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}

	fmt.Fprintf(stderr, "Listed %d candidates\n", len(candidates))
	return nil
}

// parseProtocols parses the --protocol values. An empty result means
// every protocol is allowed.
func parseProtocols(names []string) (map[model.Protocol]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	allowed := make(map[model.Protocol]bool, len(names))
	for _, name := range names {
		p, err := model.ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		allowed[p] = true
	}
	return allowed, nil
}

// filterCandidates keeps candidates whose protocol is allowed, up to limit.
// A nil allowed set keeps every protocol and a limit of 0 keeps everything.
func filterCandidates(candidates []model.Candidate, allowed map[model.Protocol]bool, limit int) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if allowed != nil && !allowed[c.Protocol] {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
