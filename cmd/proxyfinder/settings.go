package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/proxyfinder/internal/config"
	"github.com/nao1215/proxyfinder/internal/log"
)

// noBuiltinSources disables every built-in source when passed to --source.
const noBuiltinSources = "none"

// Values accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// addSourceFlags registers the discovery flags shared by find and list.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("source", "s", nil,
		"Built-in sources to use (free-proxy-list, proxyscrape-http, proxyscrape-socks4, proxyscrape-socks5, or none)")
	cmd.Flags().StringSliceP("source-file", "f", nil,
		"Local proxy list file, one ip:port or protocol://ip:port per line (repeatable)")
	cmd.Flags().Bool("no-cache", false, "Always download source lists instead of using the cache")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL, "Maximum age of a cached source list")
	cmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout, "Timeout for downloading one source list")
	cmd.Flags().Bool("tor", false, "Download source lists through an embedded Tor daemon")
	cmd.Flags().String("tor-proxy", "", "Download source lists through an existing Tor SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout, "Timeout for embedded Tor startup")
}

// loadConfig builds the configuration from defaults and the config file.
// Flags are applied afterwards by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.Verbose = getVerboseFlag(cmd)
	if cfg.JSONLogs, err = getJSONLogsFlag(cmd); err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is an error only when the user named it explicitly.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// applySourceFlags copies the discovery flags the user set onto cfg.
func applySourceFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("source") {
		if cfg.SourceNames, err = flags.GetStringSlice("source"); err != nil {
			return err
		}
	}
	if flags.Changed("source-file") {
		files, err := flags.GetStringSlice("source-file")
		if err != nil {
			return err
		}
		cfg.SourceFiles = append(cfg.SourceFiles, files...)
	}
	if flags.Changed("no-cache") {
		noCache, err := flags.GetBool("no-cache")
		if err != nil {
			return err
		}
		cfg.UseCache = !noCache
	}
	if flags.Changed("cache-ttl") {
		if cfg.CacheTTL, err = flags.GetDuration("cache-ttl"); err != nil {
			return err
		}
	}
	if flags.Changed("fetch-timeout") {
		if cfg.FetchTimeout, err = flags.GetDuration("fetch-timeout"); err != nil {
			return err
		}
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return err
	}
	if cfg.TorProxy, err = flags.GetString("tor-proxy"); err != nil {
		return err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return err
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getJSONLogsFlag reports whether --log-format selects JSON. Commands
// without the flag log as text.
func getJSONLogsFlag(cmd *cobra.Command) (bool, error) {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		if format, err = cmd.Root().PersistentFlags().GetString("log-format"); err != nil {
			return false, nil
		}
	}
	switch format {
	case logFormatText:
		return false, nil
	case logFormatJSON:
		return true, nil
	default:
		return false, fmt.Errorf("invalid --log-format %q: must be %s or %s", format, logFormatText, logFormatJSON)
	}
}

// setupLogger creates the secure logger and makes it the default.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logger := log.NewSecureLogger(w, cfg.Verbose)
	if cfg.JSONLogs {
		logger = log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// createOutputFile creates path and its parent directories. The file is
// only readable by the owner.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// secondsToDuration converts the --conn-timeout value, given in seconds
// as a decimal like 3.05, to a Duration with millisecond precision.
func secondsToDuration(seconds float64) (time.Duration, error) {
	if seconds <= 0 {
		return 0, errors.New("timeout must be a positive number of seconds")
	}
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond, nil
}
