package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/resume-tailor/internal/extraction"
	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/tailoring"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Rewrite individual resume sections against a job posting",
	Long: `Splits a resume into its standard sections (summary, education, work
experience, projects, skills, additional, activities), rewrites each against
the job posting, and prints the result as JSON. Useful for updating a resume
piecemeal without regenerating the whole document.`,
	RunE: runSectionsCmd,
}

var (
	sectionsResume string
	sectionsJob    string
	sectionsAPIKey string
	sectionsModel  string
)

func init() {
	sectionsCmd.Flags().StringVarP(&sectionsResume, "resume", "r", "", "Path to the resume (.pdf, .docx, .doc, .txt, .tex)")
	sectionsCmd.Flags().StringVarP(&sectionsJob, "job", "j", "", "Path to job posting text file")
	sectionsCmd.Flags().StringVar(&sectionsModel, "model", "", "Gemini model name")
	sectionsCmd.Flags().StringVar(&sectionsAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	_ = sectionsCmd.MarkFlagRequired("resume")
	_ = sectionsCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(sectionsCmd)
}

func runSectionsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := sectionsAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	resumeText, err := extraction.LoadFile(sectionsResume)
	if err != nil {
		return fmt.Errorf("loading resume failed: %w", err)
	}

	sections := extraction.ParseSections(resumeText)
	if sections.IsEmpty() {
		return fmt.Errorf("no recognizable sections found in %s", sectionsResume)
	}

	jobText, err := extraction.LoadFile(sectionsJob)
	if err != nil {
		return fmt.Errorf("loading job posting failed: %w", err)
	}

	cfg := llm.DefaultConfig()
	if sectionsModel != "" {
		cfg = cfg.WithModel(sectionsModel)
	}
	client, err := llm.NewClient(ctx, cfg, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = client.Close() }()

	rewritten, err := tailoring.RewriteSections(ctx, client, sections, jobText)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rewritten)
}
