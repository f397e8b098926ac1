// Package pipeline provides the high-level orchestration for tailoring a
// resume to a job posting and producing a compiled PDF.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/resume-tailor/internal/db"
	"github.com/marcus/resume-tailor/internal/extraction"
	"github.com/marcus/resume-tailor/internal/fetch"
	"github.com/marcus/resume-tailor/internal/latex"
	"github.com/marcus/resume-tailor/internal/llm"
	"github.com/marcus/resume-tailor/internal/observability"
	"github.com/marcus/resume-tailor/internal/pdfclean"
	"github.com/marcus/resume-tailor/internal/tailoring"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	ResumePath   string // path to the resume file; ignored when ResumeText is set
	ResumeText   string // already-extracted resume text (e.g. from an upload)
	ResumeName   string // original filename for run records when ResumeText is set
	JobPath      string
	JobURL       string
	TemplatePath string
	ResultsDir   string

	Client   llm.Client      // required
	Compiler *latex.Compiler // optional; zero-value Compiler defaults apply

	UseBrowser  bool
	Verbose     bool
	DatabaseURL string
	OnProgress  ProgressCallback
}

// Result holds the artifacts produced by a successful run
type Result struct {
	RunID            uuid.UUID
	DraftTexPath     string
	FinalTexPath     string
	PDFPath          string
	Attempts         []latex.Attempt
	BlankPageRemoved bool
}

func (opts *RunOptions) emitProgress(runID uuid.UUID, step, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID.String(),
		})
	}
}

// jobSource describes where the posting came from, for run records.
func (opts *RunOptions) jobSource() string {
	if opts.JobURL != "" {
		return opts.JobURL
	}
	return filepath.Base(opts.JobPath)
}

func (opts *RunOptions) resumeName() string {
	if opts.ResumeName != "" {
		return opts.ResumeName
	}
	return filepath.Base(opts.ResumePath)
}

// Run executes the full tailoring pipeline: load inputs, tailor the resume
// text with the model, insert it into the LaTeX template, compile, and strip
// a blank first page if the compiler produced one.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("pipeline: llm client is required")
	}

	printer := observability.NewPrinter(os.Stdout)

	// Run history is best effort; a missing database never blocks tailoring.
	var database *db.DB
	if opts.DatabaseURL != "" {
		var err error
		database, err = db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without run history...\n")
			database = nil
		} else {
			defer database.Close()
		}
	}

	runID := uuid.New()
	if database != nil {
		if id, err := database.CreateRun(ctx, opts.jobSource(), opts.resumeName()); err != nil {
			fmt.Printf("Warning: failed to record run: %v\n", err)
			database = nil
		} else {
			runID = id
		}
	}

	result, err := run(ctx, &opts, runID, printer)
	if database != nil {
		if err != nil {
			_ = database.FailRun(ctx, runID, err.Error())
		} else {
			_ = database.CompleteRun(ctx, runID, db.ArtifactPaths{
				DraftTex: result.DraftTexPath,
				FinalTex: result.FinalTexPath,
				PDF:      result.PDFPath,
			})
		}
	}
	return result, err
}

func run(ctx context.Context, opts *RunOptions, runID uuid.UUID, printer *observability.Printer) (*Result, error) {
	if err := os.MkdirAll(opts.ResultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	// Load the three inputs concurrently; none depends on another.
	var resumeText, jobText, templateContent string

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if opts.ResumeText != "" {
			resumeText = opts.ResumeText
			return nil
		}
		text, err := extraction.LoadFile(opts.ResumePath)
		if err != nil {
			return fmt.Errorf("loading resume failed: %w", err)
		}
		resumeText = text
		return nil
	})
	g.Go(func() error {
		text, err := loadJobText(gCtx, opts)
		if err != nil {
			return fmt.Errorf("loading job posting failed: %w", err)
		}
		jobText = text
		return nil
	})
	g.Go(func() error {
		data, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return fmt.Errorf("loading template failed: %w", err)
		}
		templateContent = string(data)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	opts.emitProgress(runID, "load", "Loaded resume, job posting, and template")

	sections := extraction.ParseSections(resumeText)
	if opts.Verbose {
		printer.PrintSections(sections)
	}

	draft, err := tailoring.TailorResume(ctx, opts.Client, resumeText, jobText)
	if err != nil {
		return nil, err
	}
	opts.emitProgress(runID, "tailor", "Generated tailored resume draft")

	ts := time.Now().Unix()
	draftTexPath := filepath.Join(opts.ResultsDir, fmt.Sprintf("draft_resume_%d.tex", ts))
	if err := os.WriteFile(draftTexPath, []byte(draft), 0644); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	final, err := tailoring.InsertIntoTemplate(ctx, opts.Client, templateContent, draft)
	if err != nil {
		return nil, err
	}
	finalTexPath := filepath.Join(opts.ResultsDir, fmt.Sprintf("final_resume_%d.tex", ts))
	if err := os.WriteFile(finalTexPath, []byte(final), 0644); err != nil {
		return nil, fmt.Errorf("failed to save final resume: %w", err)
	}
	opts.emitProgress(runID, "insert", "Inserted draft into LaTeX template")

	compiler := opts.Compiler
	if compiler == nil {
		compiler = &latex.Compiler{}
	}
	pdfPath, attempts, err := compiler.Compile(ctx, finalTexPath, opts.ResultsDir)
	if opts.Verbose {
		printer.PrintCompileAttempts(attempts)
	}
	if err != nil {
		return nil, err
	}
	opts.emitProgress(runID, "compile", fmt.Sprintf("Compiled PDF after %d attempts", len(attempts)))

	cleanedPath := filepath.Join(opts.ResultsDir, fmt.Sprintf("final_resume_fixed_%d.pdf", ts))
	removed, err := pdfclean.RemoveBlankFirstPage(pdfPath, cleanedPath)
	if err != nil {
		return nil, err
	}
	opts.emitProgress(runID, "clean", "Checked compiled PDF for a blank first page")

	result := &Result{
		RunID:            runID,
		DraftTexPath:     draftTexPath,
		FinalTexPath:     finalTexPath,
		PDFPath:          cleanedPath,
		Attempts:         attempts,
		BlankPageRemoved: removed,
	}
	if opts.Verbose {
		printer.PrintArtifacts(result.DraftTexPath, result.FinalTexPath, result.PDFPath, removed)
	}
	opts.emitProgress(runID, "done", "Tailored resume ready")
	return result, nil
}

func loadJobText(ctx context.Context, opts *RunOptions) (string, error) {
	if opts.JobURL != "" {
		fetchOpts := fetch.DefaultOptions()
		fetchOpts.AllowBrowser = opts.UseBrowser
		return fetch.JobPosting(ctx, opts.JobURL, fetchOpts)
	}
	return extraction.LoadFile(opts.JobPath)
}
