package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

// TestNewConfig documents the default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Workers is 20", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 20 {
			t.Errorf("expected Workers to be 20, got %d", cfg.Workers)
		}
	})

	t.Run("default ConnectTimeout is 3.05 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.ConnectTimeout != 3050*time.Millisecond {
			t.Errorf("expected ConnectTimeout to be 3.05s, got %v", cfg.ConnectTimeout)
		}
	})

	t.Run("default MaxCandidates checks everything", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxCandidates != 0 {
			t.Errorf("expected MaxCandidates to be 0, got %d", cfg.MaxCandidates)
		}
	})

	t.Run("default PollInterval is 200ms", func(t *testing.T) {
		t.Parallel()
		if cfg.PollInterval != 200*time.Millisecond {
			t.Errorf("expected PollInterval to be 200ms, got %v", cfg.PollInterval)
		}
	})

	t.Run("cache is enabled for 10 minutes", func(t *testing.T) {
		t.Parallel()
		if !cfg.UseCache || cfg.CacheTTL != 10*time.Minute {
			t.Errorf("expected cache enabled with 10m TTL, got %v %v", cfg.UseCache, cfg.CacheTTL)
		}
	})

	t.Run("default format is text", func(t *testing.T) {
		t.Parallel()
		if cfg.Format != FormatText {
			t.Errorf("expected text format, got %q", cfg.Format)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})
}

// TestConfigValidate tests Validate.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.TargetURL = "http://example.com"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid configuration", modify: func(*Config) {}},
		{name: "missing target", modify: func(c *Config) { c.TargetURL = "" }, wantErr: ErrNoTarget},
		{name: "negative max proxies", modify: func(c *Config) { c.MaxCandidates = -1 }, wantErr: ErrInvalidMaxProxies},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: ErrInvalidWorkers},
		{name: "zero timeout", modify: func(c *Config) { c.ConnectTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero poll interval", modify: func(c *Config) { c.PollInterval = 0 }, wantErr: ErrInvalidPollInterval},
		{name: "unknown format", modify: func(c *Config) { c.Format = "xml" }, wantErr: ErrInvalidFormat},
		{name: "negative cache ttl", modify: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: ErrInvalidCacheTTL},
		{name: "zero fetch timeout", modify: func(c *Config) { c.FetchTimeout = 0 }, wantErr: ErrInvalidFetchTimeout},
		{
			name:    "url source without url",
			modify:  func(c *Config) { c.SourceURLs = []URLSource{{Name: "x"}} },
			wantErr: ErrInvalidSourceURL,
		},
		{
			name:    "url source with unknown protocol",
			modify:  func(c *Config) { c.SourceURLs = []URLSource{{Name: "x", URL: "http://a", Protocol: "ftp"}} },
			wantErr: ErrInvalidSourceURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestRunConfig tests conversion to the finder settings.
func TestRunConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.TargetURL = "http://example.com"
	cfg.MaxCandidates = 7
	cfg.Workers = 3

	rc := cfg.RunConfig()
	want := model.RunConfig{
		TargetURL:      "http://example.com",
		MaxCandidates:  7,
		WorkerCount:    3,
		ConnectTimeout: DefaultConnectTimeout,
	}
	if rc != want {
		t.Errorf("expected %+v, got %+v", want, rc)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("expected valid run config, got %v", err)
	}
}

// TestParseFormat tests format parsing.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "text", want: FormatText},
		{input: "JSON", want: FormatJSON},
		{input: " markdown ", want: FormatMarkdown},
		{input: "md", want: FormatMarkdown},
		{input: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("expected ErrInvalidFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.proxyfinder")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads and applies valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".proxyfinder")
		content := `defaults:
  url: http://example.com/
  maxProxies: 50
  maxThreads: 8
  connTimeout: 5s
  showAll: true
  format: markdown
sources:
  builtin:
    - proxyscrape-socks5
  files:
    - /tmp/proxies.txt
  urls:
    - name: mirror
      url: https://mirror.example.com/list.txt
      protocol: socks4
  cacheTTL: 1h
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		if err := file.Apply(cfg); err != nil {
			t.Fatalf("unexpected apply error: %v", err)
		}

		if cfg.TargetURL != "http://example.com/" {
			t.Errorf("unexpected TargetURL %q", cfg.TargetURL)
		}
		if cfg.MaxCandidates != 50 || cfg.Workers != 8 {
			t.Errorf("unexpected limits %d/%d", cfg.MaxCandidates, cfg.Workers)
		}
		if cfg.ConnectTimeout != 5*time.Second {
			t.Errorf("unexpected ConnectTimeout %v", cfg.ConnectTimeout)
		}
		if !cfg.ShowAll || cfg.Format != FormatMarkdown {
			t.Errorf("unexpected output settings %v %q", cfg.ShowAll, cfg.Format)
		}
		if len(cfg.SourceNames) != 1 || cfg.SourceNames[0] != "proxyscrape-socks5" {
			t.Errorf("unexpected SourceNames %v", cfg.SourceNames)
		}
		if len(cfg.SourceFiles) != 1 {
			t.Errorf("unexpected SourceFiles %v", cfg.SourceFiles)
		}
		if len(cfg.SourceURLs) != 1 || cfg.SourceURLs[0].Protocol != model.ProtocolSOCKS4 {
			t.Errorf("unexpected SourceURLs %v", cfg.SourceURLs)
		}
		if cfg.CacheTTL != time.Hour {
			t.Errorf("unexpected CacheTTL %v", cfg.CacheTTL)
		}
		if cfg.FetchTimeout != DefaultFetchTimeout {
			t.Errorf("expected FetchTimeout to keep its default, got %v", cfg.FetchTimeout)
		}
	})

	t.Run("unknown format in file is rejected on apply", func(t *testing.T) {
		t.Parallel()

		file := &File{Defaults: RunDefaults{Format: "pdf"}}
		if err := file.Apply(NewConfig()); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".proxyfinder")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestLoadConfigFileStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty file", content: ""},
		{name: "comments only", content: "# nothing set\n"},
		{name: "unknown key", content: "defaults:\n  maxThreds: 5\n", wantErr: true},
		{name: "unknown section", content: "proxies: []\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			file, err := LoadConfigFile(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if file == nil {
				t.Fatal("expected non-nil file")
			}
		})
	}
}

func TestConfigSearchPaths(t *testing.T) {
	t.Parallel()

	paths := configSearchPaths()
	if len(paths) == 0 {
		t.Fatal("expected search paths")
	}
	if last := paths[len(paths)-1]; last != filepath.Join(XDGConfigDir(), "config.yaml") {
		t.Errorf("expected XDG config last, got %q", last)
	}
	if filepath.Base(paths[0]) != DefaultConfigFile {
		t.Errorf("expected %s first, got %q", DefaultConfigFile, paths[0])
	}
}

func TestFindConfigFileIgnoresDirectory(t *testing.T) {
	t.Parallel()

	if got := FindConfigFile(t.TempDir()); got != "" {
		t.Errorf("expected a directory to be ignored, got %q", got)
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
			}
		})
	}
}
