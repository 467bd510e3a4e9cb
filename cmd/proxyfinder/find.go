package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/proxyfinder/internal/config"
	"github.com/nao1215/proxyfinder/internal/finder"
	"github.com/nao1215/proxyfinder/internal/model"
	"github.com/nao1215/proxyfinder/internal/report"
)

// NewFindCmd creates the find command.
func NewFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [url]",
		Short: "Find proxies that can fetch a URL",
		Long: `Find downloads proxy lists, checks every proxy by fetching the target URL
through it, and prints each proxy that returned HTTP 200 as protocol://ip:port.

Press Ctrl-C to stop early. Probes already running are allowed to finish
and everything found so far is still printed.

Examples:
  # Check every listed proxy against a site
  proxyfinder find http://example.com/

  # Check at most 200 proxies with 50 workers and a 5 second timeout
  proxyfinder find -p 200 -t 50 -n 5 http://example.com/

  # Show failures too and save the working proxies to a file
  proxyfinder find -a -o proxies.txt http://example.com/

  # Only check SOCKS5 proxies from a local list, write a Markdown report
  proxyfinder find -s none -f socks5.txt --format markdown -o report.md http://example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFindCmd,
	}

	cmd.Flags().StringP("url", "u", "", "URL to fetch through each proxy (alternative to the argument)")
	cmd.Flags().IntP("max-proxies", "p", 0, "Max number of proxies to check; 0 checks all")
	cmd.Flags().IntP("max-threads", "t", config.DefaultWorkers, "Max number of proxies checked at the same time")
	cmd.Flags().Float64P("conn-timeout", "n", config.DefaultConnectTimeout.Seconds(),
		"Max seconds to wait to establish a connection, and again for the first response byte")
	cmd.Flags().BoolP("show-all", "a", false, "Also print failed proxies with the failure reason")
	cmd.Flags().StringP("output-file", "o", "",
		"Write working proxies (text) or the full report (json, markdown) to a file")
	cmd.Flags().String("format", string(config.FormatText), "Output format: text, json or markdown")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "How often progress is refreshed")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	addSourceFlags(cmd)

	return cmd
}

// applyFindFlags copies the find flags the user set onto cfg.
func applyFindFlags(cmd *cobra.Command, args []string, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if len(args) > 0 {
		cfg.TargetURL = args[0]
	}
	if flags.Changed("url") {
		if len(args) > 0 {
			return errors.New("specify the target URL either as an argument or with --url, not both")
		}
		if cfg.TargetURL, err = flags.GetString("url"); err != nil {
			return err
		}
	}
	if flags.Changed("max-proxies") {
		if cfg.MaxCandidates, err = flags.GetInt("max-proxies"); err != nil {
			return err
		}
	}
	if flags.Changed("max-threads") {
		if cfg.Workers, err = flags.GetInt("max-threads"); err != nil {
			return err
		}
	}
	if flags.Changed("conn-timeout") {
		seconds, err := flags.GetFloat64("conn-timeout")
		if err != nil {
			return err
		}
		if cfg.ConnectTimeout, err = secondsToDuration(seconds); err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidTimeout, err)
		}
	}
	if flags.Changed("show-all") {
		if cfg.ShowAll, err = flags.GetBool("show-all"); err != nil {
			return err
		}
	}
	if flags.Changed("output-file") {
		if cfg.OutputFile, err = flags.GetString("output-file"); err != nil {
			return err
		}
	}
	if flags.Changed("format") {
		name, err := flags.GetString("format")
		if err != nil {
			return err
		}
		if cfg.Format, err = config.ParseFormat(name); err != nil {
			return err
		}
	}
	if flags.Changed("poll-interval") {
		if cfg.PollInterval, err = flags.GetDuration("poll-interval"); err != nil {
			return err
		}
	}
	return applySourceFlags(cmd, cfg)
}

func runFindCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFindFlags(cmd, args, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	noProgress, err := cmd.Flags().GetBool("no-progress")
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

	f, err := finder.New(cfg.RunConfig(), stack.registry, finder.WithLogger(logger))
	if err != nil {
		return err
	}

	return runFind(ctx, f, cfg, findOutput{
		stdout:   cmd.OutOrStdout(),
		stderr:   stderr,
		progress: !noProgress,
	}, logger)
}

// findOutput holds where runFind writes.
type findOutput struct {
	stdout   io.Writer
	stderr   io.Writer
	progress bool
}

// runFind drives one validation run: it starts the finder, streams
// results while polling progress, handles cancellation and writes the
// final output.
func runFind(ctx context.Context, f *finder.Finder, cfg *config.Config, out findOutput, logger *slog.Logger) error {
	candidates, err := f.Candidates(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out.stderr, "Checking %d proxies against %s with %d workers\n",
		len(candidates), cfg.TargetURL, cfg.Workers)

	// Workers must outlive ctx so probes in flight at Ctrl-C can finish.
	if err := f.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	var stream *report.SimpleWriter
	if cfg.Format == config.FormatText {
		stream = report.NewSimpleWriter(out.stdout, report.WithShowAll(cfg.ShowAll))
	}
	streamed := 0
	emit := func(batch []model.ProbeOutcome) {
		streamed += len(batch)
		if stream == nil || len(batch) == 0 {
			return
		}
		if _, err := stream.WriteOutcomes(batch); err != nil {
			logger.Error("failed to write results", "error", err)
		}
	}

	bar := newProgressBar(out.stderr, len(candidates), out.progress)
	interrupted := pollRun(ctx, f, cfg.PollInterval, bar, emit)

	if interrupted {
		fmt.Fprintln(out.stderr, "\nInterrupted, waiting for running checks to finish...")
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.ConnectTimeout+time.Second)
	defer cancel()
	if err := f.Wait(waitCtx); err != nil {
		logger.Warn("some checks did not finish in time; their results are lost", "error", err)
	}
	// Stop moves undrained outcomes straight into Results, so stream
	// whatever was collected past the last emitted outcome.
	f.DrainLastResults()
	results := f.Results()
	emit(results[streamed:])
	bar.update(f.Progress())
	bar.finish()

	rep := report.NewRunReport(getVersion(), cfg.TargetURL, results, f.Elapsed(), interrupted)
	if err := writeFindOutput(rep, cfg, out.stdout); err != nil {
		return err
	}

	if cfg.Verbose && cfg.Format == config.FormatText {
		summaryOnly := *rep
		summaryOnly.Outcomes = nil
		if _, err := report.NewSimpleWriter(out.stderr, report.WithSummary(true)).Write(&summaryOnly); err != nil {
			logger.Error("failed to write summary", "error", err)
		}
		return nil
	}
	fmt.Fprintf(out.stderr, "Found %d working proxies out of %d checked in %s\n",
		rep.Summary.Working, rep.Summary.Total, rep.Summary.Elapsed.Round(time.Second))
	return nil
}

// pollRun drains and reports progress every interval until the run ends
// or ctx is cancelled. On cancellation the finder is stopped and true is
// returned.
func pollRun(ctx context.Context, f *finder.Finder, interval time.Duration, bar *progressBar, emit func([]model.ProbeOutcome)) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.Stop()
			return true
		case <-ticker.C:
		}

		emit(f.DrainLastResults())
		bar.update(f.Progress())
		if f.IsFinished() {
			return false
		}
	}
}

// writeFindOutput writes the final report. Text results were already
// streamed to stdout, so text only needs the output file. A json or
// markdown report written to a file also lists the proxies on stdout,
// keeping stdout a list of proxies whenever a file holds the report.
func writeFindOutput(rep *report.RunReport, cfg *config.Config, stdout io.Writer) error {
	if cfg.Format == config.FormatText && cfg.OutputFile == "" {
		return nil
	}

	w := stdout
	if cfg.OutputFile != "" {
		file, err := createOutputFile(cfg.OutputFile)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	var writer report.Writer
	switch cfg.Format {
	case config.FormatJSON:
		writer = report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithWorkingOnly(!cfg.ShowAll))
	case config.FormatMarkdown:
		writer = report.NewMarkdownWriter(w, report.WithFailedTable(cfg.ShowAll))
	default:
		writer = report.NewSimpleWriter(w)
	}
	if cfg.OutputFile != "" && cfg.Format != config.FormatText {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout, report.WithShowAll(cfg.ShowAll)))
	}

	if _, err := writer.Write(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
