package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewConfig documents the defaults; a failure here means a default changed.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("links and workbook locations", func(t *testing.T) {
		t.Parallel()
		if cfg.LinksFile != "links.txt" {
			t.Errorf("expected LinksFile links.txt, got %q", cfg.LinksFile)
		}
		if cfg.ExcelDir != "excel_files" {
			t.Errorf("expected ExcelDir excel_files, got %q", cfg.ExcelDir)
		}
	})

	t.Run("pipeline retry budgets", func(t *testing.T) {
		t.Parallel()
		if cfg.FetchAttempts != 4 || cfg.FetchDelay != 2*time.Second {
			t.Errorf("unexpected fetch budget: %d attempts, %v delay", cfg.FetchAttempts, cfg.FetchDelay)
		}
		if cfg.InferenceAttempts != 4 || cfg.InferenceDelay != 2*time.Second {
			t.Errorf("unexpected inference budget: %d attempts, %v delay", cfg.InferenceAttempts, cfg.InferenceDelay)
		}
	})

	t.Run("link scraper budget", func(t *testing.T) {
		t.Parallel()
		if cfg.LinksTimeout != 15*time.Second || cfg.LinksAttempts != 3 || cfg.LinksDelay != time.Second {
			t.Errorf("unexpected links budget: %v, %d, %v", cfg.LinksTimeout, cfg.LinksAttempts, cfg.LinksDelay)
		}
	})

	t.Run("page character budget", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPageChars != 285000 {
			t.Errorf("expected MaxPageChars 285000, got %d", cfg.MaxPageChars)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "empty links file", modify: func(c *Config) { c.LinksFile = "" }, want: ErrNoLinksFile},
		{name: "empty excel dir", modify: func(c *Config) { c.ExcelDir = "" }, want: ErrNoExcelDir},
		{name: "empty model", modify: func(c *Config) { c.Model = "" }, want: ErrNoModel},
		{name: "zero fetch timeout", modify: func(c *Config) { c.FetchTimeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative links timeout", modify: func(c *Config) { c.LinksTimeout = -time.Second }, want: ErrInvalidTimeout},
		{name: "zero inference attempts", modify: func(c *Config) { c.InferenceAttempts = 0 }, want: ErrInvalidAttempts},
		{name: "negative fetch delay", modify: func(c *Config) { c.FetchDelay = -1 }, want: ErrInvalidDelay},
		{name: "zero delay is allowed", modify: func(c *Config) { c.InferenceDelay = 0 }, want: nil},
		{name: "zero page chars", modify: func(c *Config) { c.MaxPageChars = 0 }, want: ErrInvalidMaxPageChars},
		{name: "unknown log format", modify: func(c *Config) { c.LogFormat = "xml" }, want: ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWorkbookPath(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ExcelDir = "out"

	for name, want := range map[string]string{
		"cases":      filepath.Join("out", "cases.xlsx"),
		"cases.xlsx": filepath.Join("out", "cases.xlsx"),
		"2024.v1":    filepath.Join("out", "2024.v1.xlsx"),
	} {
		if got := cfg.WorkbookPath(name); got != want {
			t.Errorf("WorkbookPath(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.caselift")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads durations and numbers", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".caselift")
		content := `excel_dir: sheets
model: gemini-2.5-pro
fetch_timeout: 45s
inference_attempts: 6
max_page_chars: 1000
log_format: json
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &Config{
			ExcelDir:          "sheets",
			Model:             "gemini-2.5-pro",
			FetchTimeout:      45 * time.Second,
			InferenceAttempts: 6,
			MaxPageChars:      1000,
			LogFormat:         "json",
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".caselift")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("file values override defaults and the rest is kept", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		content := "links_file: cases.txt\nfetch_attempts: 2\nverbose: true\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, used, err := Load(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if used != configPath {
			t.Errorf("expected %q to be used, got %q", configPath, used)
		}

		want := NewConfig()
		want.LinksFile = "cases.txt"
		want.FetchAttempts = 2
		want.Verbose = true
		want.ConfigFilePath = configPath
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		t.Parallel()

		_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dst := NewConfig()
	dst.ConfigFilePath = "keep.yaml"
	if err := Merge(dst, &Config{DebugDir: "debug", ConfigFilePath: "other.yaml"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.DebugDir != "debug" {
		t.Errorf("expected DebugDir to be overridden, got %q", dst.DebugDir)
	}
	if dst.ConfigFilePath != "keep.yaml" {
		t.Errorf("expected ConfigFilePath to be kept, got %q", dst.ConfigFilePath)
	}
	if dst.LinksFile != DefaultLinksFile {
		t.Errorf("expected zero override to keep LinksFile, got %q", dst.LinksFile)
	}
	if err := Merge(dst, nil); err != nil {
		t.Errorf("expected nil override to be a no-op, got %v", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("model: x\n"), 0600); err != nil {
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

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
		}
	}
}
