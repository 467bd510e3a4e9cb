package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/proxyfinder/internal/config"
	"github.com/nao1215/proxyfinder/internal/finder"
	"github.com/nao1215/proxyfinder/internal/model"
	"github.com/nao1215/proxyfinder/internal/report"
)

type stubDiscoverer struct {
	candidates []model.Candidate
	err        error
}

func (d *stubDiscoverer) Discover(_ context.Context) ([]model.Candidate, error) {
	return d.candidates, d.err
}

// stubProber reports every host in failing as a connection error and the
// rest as working.
type stubProber struct {
	failing map[string]bool
	delay   time.Duration
	calls   atomic.Int32
}

func (p *stubProber) Probe(ctx context.Context, c model.Candidate, _ string, _ time.Duration) model.ProbeOutcome {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
		}
	}
	outcome := model.ProbeOutcome{Candidate: c, CheckedAt: time.Now()}
	if p.failing[c.Host] {
		outcome.Error = model.ReasonConnectionError
		return outcome
	}
	outcome.StatusCode = 200
	outcome.Latency = 20 * time.Millisecond
	return outcome
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCandidates() []model.Candidate {
	return []model.Candidate{
		{Protocol: model.ProtocolHTTP, Host: "10.0.0.1", Port: 8080},
		{Protocol: model.ProtocolSOCKS5, Host: "10.0.0.2", Port: 1080},
		{Protocol: model.ProtocolHTTPS, Host: "10.0.0.3", Port: 443},
		{Protocol: model.ProtocolSOCKS4, Host: "10.0.0.4", Port: 4145},
	}
}

func testFindConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.TargetURL = "http://example.com/"
	cfg.Workers = 2
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	return cfg
}

func newTestFinder(t *testing.T, cfg *config.Config, prober finder.Prober) *finder.Finder {
	t.Helper()
	f, err := finder.New(cfg.RunConfig(), &stubDiscoverer{candidates: testCandidates()},
		finder.WithProber(prober), finder.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("failed to create finder: %v", err)
	}
	return f
}

func TestNewFindCmd(t *testing.T) {
	t.Parallel()

	cmd := NewFindCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "find [url]" {
			t.Errorf("expected use 'find [url]', got %q", cmd.Use)
		}
	})

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"url", "u", ""},
			{"max-proxies", "p", "0"},
			{"max-threads", "t", "20"},
			{"conn-timeout", "n", "3.05"},
			{"show-all", "a", "false"},
			{"output-file", "o", ""},
			{"format", "", "text"},
			{"source", "s", "[]"},
			{"source-file", "f", "[]"},
			{"no-cache", "", "false"},
			{"tor", "", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})
}

func TestApplyFindFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		flags   []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr error
	}{
		{
			name: "positional url and defaults",
			args: []string{"http://example.com/"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.TargetURL != "http://example.com/" {
					t.Errorf("TargetURL = %q", cfg.TargetURL)
				}
				if cfg.Workers != config.DefaultWorkers {
					t.Errorf("Workers = %d", cfg.Workers)
				}
				if cfg.ConnectTimeout != config.DefaultConnectTimeout {
					t.Errorf("ConnectTimeout = %v", cfg.ConnectTimeout)
				}
			},
		},
		{
			name:  "all run flags",
			flags: []string{"-u", "http://example.org/", "-p", "50", "-t", "8", "-n", "1.5", "-a", "--format", "JSON", "-o", "out.json", "--poll-interval", "1s"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.TargetURL != "http://example.org/" {
					t.Errorf("TargetURL = %q", cfg.TargetURL)
				}
				if cfg.MaxCandidates != 50 || cfg.Workers != 8 {
					t.Errorf("MaxCandidates = %d, Workers = %d", cfg.MaxCandidates, cfg.Workers)
				}
				if cfg.ConnectTimeout != 1500*time.Millisecond {
					t.Errorf("ConnectTimeout = %v", cfg.ConnectTimeout)
				}
				if !cfg.ShowAll || cfg.Format != config.FormatJSON || cfg.OutputFile != "out.json" {
					t.Errorf("ShowAll = %v, Format = %v, OutputFile = %q", cfg.ShowAll, cfg.Format, cfg.OutputFile)
				}
				if cfg.PollInterval != time.Second {
					t.Errorf("PollInterval = %v", cfg.PollInterval)
				}
			},
		},
		{
			name:    "zero timeout",
			args:    []string{"http://example.com/"},
			flags:   []string{"-n", "0"},
			wantErr: config.ErrInvalidTimeout,
		},
		{
			name:    "unknown format",
			args:    []string{"http://example.com/"},
			flags:   []string{"--format", "xml"},
			wantErr: config.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := NewFindCmd()
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatal(err)
			}
			cfg := config.NewConfig()
			err := applyFindFlags(cmd, tt.args, cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}

	t.Run("url argument and flag conflict", func(t *testing.T) {
		t.Parallel()
		cmd := NewFindCmd()
		if err := cmd.ParseFlags([]string{"-u", "http://a.example/"}); err != nil {
			t.Fatal(err)
		}
		if err := applyFindFlags(cmd, []string{"http://b.example/"}, config.NewConfig()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRunFindCmdRequiresTarget(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"find", "-c", writeEmptyConfig(t), "-s", "none", "--no-cache"})

	err := root.Execute()
	if !errors.Is(err, config.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

// writeEmptyConfig keeps tests independent of any .proxyfinder file on the machine.
func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("defaults: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFind(t *testing.T) {
	t.Parallel()

	t.Run("text streams working proxies", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		prober := &stubProber{failing: map[string]bool{"10.0.0.2": true}}
		f := newTestFinder(t, cfg, prober)

		var stdout, stderr bytes.Buffer
		err := runFind(context.Background(), f, cfg, findOutput{stdout: &stdout, stderr: &stderr}, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := stdout.String()
		for _, want := range []string{"http://10.0.0.1:8080", "https://10.0.0.3:443", "socks4://10.0.0.4:4145"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output, got %q", want, out)
			}
		}
		if strings.Contains(out, "10.0.0.2") {
			t.Errorf("failed proxy should not be printed without show-all: %q", out)
		}
		if got := strings.Count(out, "\n"); got != 3 {
			t.Errorf("expected 3 lines, got %d", got)
		}
		if !strings.Contains(stderr.String(), "Found 3 working proxies out of 4 checked") {
			t.Errorf("unexpected summary: %q", stderr.String())
		}
	})

	t.Run("text with show-all prints failures", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.ShowAll = true
		f := newTestFinder(t, cfg, &stubProber{failing: map[string]bool{"10.0.0.2": true}})

		var stdout bytes.Buffer
		if err := runFind(context.Background(), f, cfg, findOutput{stdout: &stdout, stderr: io.Discard}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "socks5://10.0.0.2:1080 -> " + model.ReasonConnectionError
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected %q in output, got %q", want, stdout.String())
		}
	})

	t.Run("text output file gets working proxies", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.OutputFile = filepath.Join(t.TempDir(), "proxies.txt")
		f := newTestFinder(t, cfg, &stubProber{failing: map[string]bool{"10.0.0.1": true}})

		if err := runFind(context.Background(), f, cfg, findOutput{stdout: io.Discard, stderr: io.Discard}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(cfg.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		if len(lines) != 3 {
			t.Errorf("expected 3 working proxies in file, got %q", content)
		}
	})

	t.Run("json report", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.Format = config.FormatJSON
		cfg.ShowAll = true
		f := newTestFinder(t, cfg, &stubProber{failing: map[string]bool{"10.0.0.4": true}})

		var stdout bytes.Buffer
		if err := runFind(context.Background(), f, cfg, findOutput{stdout: &stdout, stderr: io.Discard}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rep report.RunReport
		if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
		}
		if rep.TargetURL != cfg.TargetURL {
			t.Errorf("TargetURL = %q", rep.TargetURL)
		}
		if rep.Summary.Total != 4 || rep.Summary.Working != 3 {
			t.Errorf("Summary = %+v", rep.Summary)
		}
		if len(rep.Outcomes) != 4 {
			t.Errorf("expected all outcomes with show-all, got %d", len(rep.Outcomes))
		}
		if rep.Interrupted {
			t.Error("expected a complete run")
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.Format = config.FormatMarkdown
		cfg.OutputFile = filepath.Join(t.TempDir(), "report.md")
		f := newTestFinder(t, cfg, &stubProber{})

		var stdout bytes.Buffer
		if err := runFind(context.Background(), f, cfg, findOutput{stdout: &stdout, stderr: io.Discard}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Count(stdout.String(), "\n"); got != 4 {
			t.Errorf("expected the 4 working proxies on stdout, got %q", stdout.String())
		}
		content, err := os.ReadFile(cfg.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "# Proxy Validation Report") {
			t.Errorf("unexpected markdown: %s", content)
		}
	})

	t.Run("cancelled run keeps collected results", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.Format = config.FormatJSON
		cfg.Workers = 1
		prober := &stubProber{delay: 20 * time.Millisecond}
		f := newTestFinder(t, cfg, prober)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var stdout, stderr bytes.Buffer
		if err := runFind(ctx, f, cfg, findOutput{stdout: &stdout, stderr: &stderr}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rep report.RunReport
		if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if !rep.Interrupted {
			t.Error("expected the report to be marked interrupted")
		}
		if got := int(prober.calls.Load()); rep.Summary.Total != got {
			t.Errorf("every probe that ran must be reported: total %d, probes %d", rep.Summary.Total, got)
		}
		if !strings.Contains(stderr.String(), "Interrupted") {
			t.Errorf("expected interruption notice, got %q", stderr.String())
		}
	})

	t.Run("cancelled text run streams every outcome", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		cfg.ShowAll = true
		cfg.Workers = 2
		prober := &stubProber{delay: 30 * time.Millisecond}
		f := newTestFinder(t, cfg, prober)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var stdout bytes.Buffer
		if err := runFind(ctx, f, cfg, findOutput{stdout: &stdout, stderr: io.Discard}, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Count(stdout.String(), "\n")
		if got := int(prober.calls.Load()); lines != got {
			t.Errorf("expected %d streamed lines, got %d: %q", got, lines, stdout.String())
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		cfg := testFindConfig()
		f, err := finder.New(cfg.RunConfig(), &stubDiscoverer{}, finder.WithProber(&stubProber{}))
		if err != nil {
			t.Fatal(err)
		}
		err = runFind(context.Background(), f, cfg, findOutput{stdout: io.Discard, stderr: io.Discard}, quietLogger())
		if !errors.Is(err, finder.ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
	})
}
