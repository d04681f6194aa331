// Package config handles scraper configuration and output layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a scrape run. Values come from defaults,
// optionally overridden by a YAML file and then by environment variables.
type Config struct {
	BaseURL   string `yaml:"base_url"`
	OutputDir string `yaml:"output_dir"`
	UserAgent string `yaml:"user_agent"`

	// DOIPrefix is the registrant prefix under which the proceedings
	// file their DOIs, without the trailing contribution code.
	DOIPrefix string `yaml:"doi_prefix"`

	Retries        int           `yaml:"retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	PageTimeout     time.Duration `yaml:"page_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`

	// RequestsPerSecond caps the request rate across all HTTP traffic.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// PaperDelay is the pause after each paper's downloads,
	// SessionDelay the pause between sessions.
	PaperDelay   time.Duration `yaml:"paper_delay"`
	SessionDelay time.Duration `yaml:"session_delay"`

	Extract ExtractConfig `yaml:"extract"`
}

// ExtractConfig is the configurable part of the title cleanup rule table.
// Conference sites differ in the boilerplate they pack around titles, so
// these are data rather than code.
type ExtractConfig struct {
	// StopKeywords terminate a title at their first occurrence.
	StopKeywords []string `yaml:"stop_keywords"`
	// LinkPhrase is the literal text that follows a secondary
	// contribution code in cross-reference boilerplate.
	LinkPhrase string `yaml:"link_phrase"`
}

const (
	// EnvBaseURL and EnvOutputDir override the corresponding config
	// fields when set.
	EnvBaseURL   = "NAPAC_BASE_URL"
	EnvOutputDir = "NAPAC_OUTPUT_DIR"

	// LogFile is the run log written under the output directory.
	LogFile = "napac2025_scraper.log"
	// CatalogFile is the SQLite catalog written under the output directory.
	CatalogFile = "catalog.db"
)

// Default returns the configuration for the NAPAC2025 proceedings site.
func Default() *Config {
	return &Config{
		BaseURL:           "https://meow.elettra.eu/97/",
		OutputDir:         "NAPAC2025_Data",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		DOIPrefix:         "10.18429/JACoW-NAPAC2025",
		Retries:           3,
		RetryBaseDelay:    time.Second,
		PageTimeout:       30 * time.Second,
		ProbeTimeout:      10 * time.Second,
		DownloadTimeout:   60 * time.Second,
		RequestsPerSecond: 2,
		PaperDelay:        time.Second,
		SessionDelay:      2 * time.Second,
		Extract: ExtractConfig{
			StopKeywords: []string{"DOI:", "About:", "Cite:", "Received:", "Funding:"},
			LinkPhrase:   "use link",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is
// non-empty) and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive, got %g", c.RequestsPerSecond)
	}
	return nil
}

// SessionsDir returns the per-session data directory under root.
func SessionsDir(root string) string {
	return filepath.Join(root, "Sessions")
}

// DebugDir returns the debug dump directory under root.
func DebugDir(root string) string {
	return filepath.Join(root, "Debug")
}

// LogPath returns the run log path under root.
func LogPath(root string) string {
	return filepath.Join(root, LogFile)
}

// CatalogPath returns the SQLite catalog path under root.
func CatalogPath(root string) string {
	return filepath.Join(root, CatalogFile)
}

// CreateDirectories creates the output tree for a run: the root itself
// plus the artifact, session and debug directories.
func (c *Config) CreateDirectories() error {
	dirs := []string{
		c.OutputDir,
		filepath.Join(c.OutputDir, "Presentations"),
		filepath.Join(c.OutputDir, "Papers"),
		filepath.Join(c.OutputDir, "Posters"),
		SessionsDir(c.OutputDir),
		DebugDir(c.OutputDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
