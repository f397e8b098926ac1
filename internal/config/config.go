// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags.
type Config struct {
	// Paths
	Resume     string `json:"resume,omitempty"`      // Path to the resume to tailor
	Job        string `json:"job,omitempty"`         // Path to job posting text file
	JobURL     string `json:"job_url,omitempty"`     // URL to fetch job posting from
	Template   string `json:"template,omitempty"`    // Path to LaTeX resume template
	ResultsDir string `json:"results_dir,omitempty"` // Directory for generated artifacts
	UploadsDir string `json:"uploads_dir,omitempty"` // Directory for uploaded source files

	// Model
	APIKey string `json:"api_key,omitempty"` // Gemini API key
	Model  string `json:"model,omitempty"`   // Gemini model name

	// Server
	Port    int    `json:"port,omitempty"`     // HTTP listen port
	BaseURL string `json:"base_url,omitempty"` // Public base URL for download links

	// Behavior
	UseBrowser     bool   `json:"use_browser,omitempty"`     // Use headless browser for SPA job boards
	Verbose        bool   `json:"verbose,omitempty"`         // Print detailed progress information
	CompileTimeout int    `json:"compile_timeout,omitempty"` // Per-pass LaTeX compile timeout, seconds
	CleanupDelay   int    `json:"cleanup_delay,omitempty"`   // Delay before intermediate files are removed, seconds
	DatabaseURL    string `json:"database_url,omitempty"`    // PostgreSQL connection URL for run history
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		ResultsDir:     "results",
		UploadsDir:     "uploads",
		Model:          "gemini-2.5-flash",
		Port:           8000,
		BaseURL:        "http://localhost:8000",
		CompileTimeout: 30,
		CleanupDelay:   300,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are not checked here; those are enforced by CLI flag
// validation after merging.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.CompileTimeout < 0 {
		return fmt.Errorf("config error: 'compile_timeout' must be non-negative")
	}
	if c.CleanupDelay < 0 {
		return fmt.Errorf("config error: 'cleanup_delay' must be non-negative")
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}

	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.ResultsDir == "" {
		result.ResultsDir = defaults.ResultsDir
	}
	if result.UploadsDir == "" {
		result.UploadsDir = defaults.UploadsDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.CompileTimeout == 0 {
		result.CompileTimeout = defaults.CompileTimeout
	}
	if result.CleanupDelay == 0 {
		result.CleanupDelay = defaults.CleanupDelay
	}

	// Bool fields cannot distinguish unset from false, so they are not
	// merged; CLI flags always win for bools.

	return result
}
