package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/caselift/internal/crawler"
	"github.com/nao1215/caselift/internal/fetch"
	"github.com/nao1215/caselift/internal/inference"
	"github.com/nao1215/caselift/internal/log"
)

// AppName is the application name used for XDG directory paths.
const AppName = "caselift"

// Default configuration values.
const (
	// DefaultLinksFile is the newline-delimited list of case URLs read by extract.
	DefaultLinksFile = "links.txt"

	// DefaultExcelDir is the directory that holds output workbooks.
	DefaultExcelDir = "excel_files"

	// DefaultLinksTimeout is the per-request timeout of the link scraper.
	DefaultLinksTimeout = 15 * time.Second

	// DefaultLinksAttempts is the retry budget of the link scraper.
	DefaultLinksAttempts = 3

	// DefaultLinksDelay is the first backoff delay of the link scraper.
	DefaultLinksDelay = time.Second
)

// Config holds all configuration options for caselift.
// It is populated from defaults, then the .caselift file, then CLI flags,
// and passed down explicitly rather than kept in global state.
type Config struct {
	// LinksFile is the input file of case URLs, one per line.
	LinksFile string `yaml:"links_file,omitempty"`

	// ExcelDir is where <name>.xlsx workbooks are written.
	ExcelDir string `yaml:"excel_dir,omitempty"`

	// Model is the Gemini model identifier.
	Model string `yaml:"model,omitempty"`

	// APIBaseURL overrides the Gemini endpoint. Tests point it at a local server.
	APIBaseURL string `yaml:"api_base_url,omitempty"`

	// FetchTimeout bounds a single case page request.
	FetchTimeout time.Duration `yaml:"fetch_timeout,omitempty"`

	// FetchAttempts is the total number of tries per case page.
	FetchAttempts int `yaml:"fetch_attempts,omitempty"`

	// FetchDelay is the wait before the second fetch attempt; it doubles afterwards.
	FetchDelay time.Duration `yaml:"fetch_delay,omitempty"`

	// InferenceTimeout bounds a single model call.
	InferenceTimeout time.Duration `yaml:"inference_timeout,omitempty"`

	// InferenceAttempts is the total number of tries per model call.
	InferenceAttempts int `yaml:"inference_attempts,omitempty"`

	// InferenceDelay is the wait before the second model call; it doubles afterwards.
	InferenceDelay time.Duration `yaml:"inference_delay,omitempty"`

	// MaxPageChars caps the page text sent to the model, counted in runes.
	MaxPageChars int `yaml:"max_page_chars,omitempty"`

	// LinksTimeout is the per-request timeout of the links command.
	LinksTimeout time.Duration `yaml:"links_timeout,omitempty"`

	// LinksAttempts is the retry budget of the links command.
	LinksAttempts int `yaml:"links_attempts,omitempty"`

	// LinksDelay is the first backoff delay of the links command.
	LinksDelay time.Duration `yaml:"links_delay,omitempty"`

	// CasePattern is the default link filter of the links command.
	CasePattern string `yaml:"case_pattern,omitempty"`

	// UserAgent is sent with every page request.
	UserAgent string `yaml:"user_agent,omitempty"`

	// DebugDir receives debug_empty_response_<n>.txt and debug_bad_json_<n>.txt.
	DebugDir string `yaml:"debug_dir,omitempty"`

	// DBDir holds the run history database. Empty disables history.
	DBDir string `yaml:"db_dir,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`

	// ConfigFilePath is the explicit --config path, if any.
	ConfigFilePath string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		LinksFile:         DefaultLinksFile,
		ExcelDir:          DefaultExcelDir,
		Model:             inference.DefaultModel,
		APIBaseURL:        inference.DefaultBaseURL,
		FetchTimeout:      fetch.DefaultTimeout,
		FetchAttempts:     fetch.DefaultMaxAttempts,
		FetchDelay:        fetch.DefaultInitialDelay,
		InferenceTimeout:  inference.DefaultTimeout,
		InferenceAttempts: inference.DefaultMaxAttempts,
		InferenceDelay:    inference.DefaultInitialDelay,
		MaxPageChars:      crawler.DefaultMaxPageChars,
		LinksTimeout:      DefaultLinksTimeout,
		LinksAttempts:     DefaultLinksAttempts,
		LinksDelay:        DefaultLinksDelay,
		CasePattern:       crawler.DefaultCasePattern,
		UserAgent:         fetch.DefaultUserAgent,
		DebugDir:          ".",
		DBDir:             XDGDataDir(),
		LogFormat:         log.FormatText,
	}
}

// XDGDataDir returns the XDG data directory for caselift.
// On Linux: ~/.local/share/caselift
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for caselift.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// WorkbookPath returns the output path for a workbook name.
// The .xlsx extension is added unless the name already carries it.
func (c *Config) WorkbookPath(name string) string {
	if filepath.Ext(name) != ".xlsx" {
		name += ".xlsx"
	}
	return filepath.Join(c.ExcelDir, name)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.LinksFile == "" {
		return ErrNoLinksFile
	}
	if c.ExcelDir == "" {
		return ErrNoExcelDir
	}
	if c.Model == "" {
		return ErrNoModel
	}
	if c.FetchTimeout <= 0 || c.InferenceTimeout <= 0 || c.LinksTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.FetchAttempts < 1 || c.InferenceAttempts < 1 || c.LinksAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.FetchDelay < 0 || c.InferenceDelay < 0 || c.LinksDelay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxPageChars <= 0 {
		return ErrInvalidMaxPageChars
	}
	if !log.ValidFormat(c.LogFormat) {
		return ErrInvalidLogFormat
	}
	return nil
}
