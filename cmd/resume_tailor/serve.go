package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/resume-tailor/internal/config"
	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Serves the tailoring pipeline over HTTP: multipart resume uploads, artifact downloads, and run history when a database is configured.",
	RunE:  runServeCmd,
}

var (
	serveConfigPath   string
	servePort         int
	serveBaseURL      string
	serveResultsDir   string
	serveUploadsDir   string
	serveTemplate     string
	serveAPIKey       string
	serveModel        string
	serveUseBrowser   bool
	serveDatabaseURL  string
	serveCleanupDelay int
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "Public base URL for download links")
	serveCmd.Flags().StringVar(&serveResultsDir, "results-dir", "", "Directory for generated artifacts")
	serveCmd.Flags().StringVar(&serveUploadsDir, "uploads-dir", "", "Directory for uploaded source files")
	serveCmd.Flags().StringVarP(&serveTemplate, "template", "t", "", "Path to the default LaTeX resume template")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Gemini model name")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	serveCmd.Flags().IntVar(&serveCleanupDelay, "cleanup-delay", 0, "Seconds to keep compile intermediates after a run")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = serveBaseURL
	}
	if cmd.Flags().Changed("results-dir") {
		cfg.ResultsDir = serveResultsDir
	}
	if cmd.Flags().Changed("uploads-dir") {
		cfg.UploadsDir = serveUploadsDir
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = serveTemplate
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = serveModel
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = serveAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = serveUseBrowser
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = serveDatabaseURL
	}
	if cmd.Flags().Changed("cleanup-delay") {
		cfg.CleanupDelay = serveCleanupDelay
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	client, err := llm.NewClient(context.Background(), llm.DefaultConfig().WithModel(cfg.Model), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = client.Close() }()

	s, err := server.New(server.Config{
		Port:           cfg.Port,
		BaseURL:        cfg.BaseURL,
		ResultsDir:     cfg.ResultsDir,
		UploadsDir:     cfg.UploadsDir,
		TemplatePath:   cfg.Template,
		DatabaseURL:    cfg.DatabaseURL,
		UseBrowser:     cfg.UseBrowser,
		CleanupDelay:   time.Duration(cfg.CleanupDelay) * time.Second,
		CompileTimeout: time.Duration(cfg.CompileTimeout) * time.Second,
	}, client)
	if err != nil {
		return err
	}

	return s.Start()
}
