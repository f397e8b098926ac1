package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/resume-tailor/internal/config"
	"github.com/marcus/resume-tailor/internal/latex"
	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/pipeline"
)

var tailorCommand = &cobra.Command{
	Use:   "tailor",
	Short: "Run the full tailoring pipeline end-to-end",
	Long: `Loads a resume and a job posting, rewrites the resume to match the posting,
inserts the result into a LaTeX template, compiles it, and removes a blank
first page if the compiler produced one.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runTailorCmd,
}

var (
	tailorConfigPath     string
	tailorResume         string
	tailorJob            string
	tailorJobURL         string
	tailorTemplate       string
	tailorResultsDir     string
	tailorAPIKey         string
	tailorModel          string
	tailorUseBrowser     bool
	tailorVerbose        bool
	tailorDatabaseURL    string
	tailorCompileTimeout int
)

func init() {
	tailorCommand.Flags().StringVar(&tailorConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	tailorCommand.Flags().StringVarP(&tailorResume, "resume", "r", "", "Path to the resume to tailor (.pdf, .docx, .doc, .txt, .tex)")
	tailorCommand.Flags().StringVarP(&tailorJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	tailorCommand.Flags().StringVar(&tailorJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	tailorCommand.Flags().StringVarP(&tailorTemplate, "template", "t", "", "Path to LaTeX resume template")
	tailorCommand.Flags().StringVar(&tailorResultsDir, "results-dir", "", "Directory for generated artifacts")
	tailorCommand.Flags().StringVar(&tailorModel, "model", "", "Gemini model name")
	tailorCommand.Flags().BoolVar(&tailorUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	tailorCommand.Flags().BoolVarP(&tailorVerbose, "verbose", "v", false, "Print detailed progress information")
	tailorCommand.Flags().IntVar(&tailorCompileTimeout, "compile-timeout", 0, "Per-pass LaTeX compile timeout in seconds")

	tailorCommand.Flags().StringVar(&tailorAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	tailorCommand.Flags().StringVar(&tailorDatabaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(tailorCommand)
}

// loadTailorConfig merges config file values, CLI flags, and defaults, with
// flags taking priority over the file.
func loadTailorConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if tailorConfigPath != "" {
		loaded, err := config.LoadConfig(tailorConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if tailorVerbose {
			fmt.Printf("Loaded config from: %s\n", tailorConfigPath)
		}
	}

	if cmd.Flags().Changed("resume") {
		cfg.Resume = tailorResume
	}
	if cmd.Flags().Changed("job") {
		cfg.Job = tailorJob
	}
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = tailorJobURL
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = tailorTemplate
	}
	if cmd.Flags().Changed("results-dir") {
		cfg.ResultsDir = tailorResultsDir
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = tailorModel
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = tailorAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = tailorUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = tailorVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = tailorDatabaseURL
	}
	if cmd.Flags().Changed("compile-timeout") {
		cfg.CompileTimeout = tailorCompileTimeout
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, cfg.Validate()
}

func runTailorCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadTailorConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Resume == "" {
		return fmt.Errorf("--resume is required (via flag or config)")
	}
	if cfg.Job == "" && cfg.JobURL == "" {
		return fmt.Errorf("either --job or --job-url must be provided (via flag or config)")
	}
	if cfg.Template == "" {
		return fmt.Errorf("--template is required (via flag or config)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig().WithModel(cfg.Model), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = client.Close() }()

	result, err := pipeline.Run(ctx, pipeline.RunOptions{
		ResumePath:   cfg.Resume,
		JobPath:      cfg.Job,
		JobURL:       cfg.JobURL,
		TemplatePath: cfg.Template,
		ResultsDir:   cfg.ResultsDir,
		Client:       client,
		Compiler: &latex.Compiler{
			Timeout: time.Duration(cfg.CompileTimeout) * time.Second,
		},
		UseBrowser:  cfg.UseBrowser,
		Verbose:     cfg.Verbose,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Tailored resume written to %s\n", result.PDFPath)
	if result.BlankPageRemoved {
		fmt.Println("A blank first page was removed from the compiled PDF.")
	}
	return nil
}
