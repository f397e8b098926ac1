package latex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBin is the LaTeX compiler binary invoked by default.
	DefaultBin = "pdflatex"

	// DefaultMaxPasses caps the batchmode passes used to resolve
	// cross-references.
	DefaultMaxPasses = 3

	// DefaultTimeout bounds a single compiler invocation.
	DefaultTimeout = 30 * time.Second

	// logTailBytes is how much captured compiler output is kept for
	// diagnostics.
	logTailBytes = 2000
)

// Attempt records one strategy's try at producing a PDF.
type Attempt struct {
	Strategy     string
	Command      string
	Err          error
	ArtifactPath string
}

// Compiler drives the external LaTeX binary through an ordered
// escalation of recovery strategies. Exit codes are advisory only:
// success is always judged by the output file appearing on disk.
type Compiler struct {
	Bin       string
	MaxPasses int
	Timeout   time.Duration
}

// NewCompiler returns a Compiler with defaults.
func NewCompiler() *Compiler {
	return &Compiler{
		Bin:       DefaultBin,
		MaxPasses: DefaultMaxPasses,
		Timeout:   DefaultTimeout,
	}
}

// withDefaults returns a copy with package defaults filled into zero
// fields, so callers may set only the knobs they care about.
func (c *Compiler) withDefaults() *Compiler {
	out := *c
	if out.Bin == "" {
		out.Bin = DefaultBin
	}
	if out.MaxPasses <= 0 {
		out.MaxPasses = DefaultMaxPasses
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return &out
}

// compileJob holds the per-invocation paths shared by the strategies.
type compileJob struct {
	texPath     string
	outputDir   string
	stem        string
	pdfPath     string
	lastCommand string
}

type strategy struct {
	name string
	run  func(ctx context.Context, job *compileJob) (string, error)
}

// Compile compiles texPath into outputDir and returns the produced PDF
// path together with the record of attempts. Each strategy is attempted
// only if the prior one did not yield an output file; strategy-internal
// errors are logged and swallowed, and only exhaustion of all
// strategies is returned as an error.
func (c *Compiler) Compile(ctx context.Context, texPath, outputDir string) (string, []Attempt, error) {
	c = c.withDefaults()

	if _, err := os.Stat(texPath); err != nil {
		return "", nil, &FileReadError{
			Message: fmt.Sprintf("LaTeX source not found: %s", texPath),
			Cause:   err,
		}
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", nil, &CompilationError{
			Message: fmt.Sprintf("failed to create output directory: %s", outputDir),
			Cause:   err,
		}
	}
	if _, err := exec.LookPath(c.Bin); err != nil {
		return "", nil, &CompilationError{
			Message: fmt.Sprintf("%s not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)", c.Bin),
			Cause:   err,
		}
	}

	stem := strings.TrimSuffix(filepath.Base(texPath), ".tex")
	job := &compileJob{
		texPath:   texPath,
		outputDir: outputDir,
		stem:      stem,
		pdfPath:   filepath.Join(outputDir, stem+".pdf"),
	}

	strategies := []strategy{
		{"batchmode", c.runBatchMode},
		{"nonstopmode", c.runNonStopMode},
		{"wrapper", c.runWrapper},
		{"brace-repair", c.runBraceRepair},
		{"existing-output", c.checkExistingOutput},
	}

	var attempts []Attempt
	for _, s := range strategies {
		pdfPath, err := s.run(ctx, job)
		attempts = append(attempts, Attempt{
			Strategy:     s.name,
			Command:      job.lastCommand,
			Err:          err,
			ArtifactPath: pdfPath,
		})
		if err != nil {
			log.Printf("latex: strategy %q failed: %v", s.name, err)
			continue
		}
		if pdfPath != "" {
			return pdfPath, attempts, nil
		}
	}

	return "", attempts, c.exhaustedError(job)
}

// runPass executes a single compiler invocation with the configured
// timeout, capturing combined output. A non-zero exit status is
// returned as-is; callers decide whether it matters.
func (c *Compiler) runPass(ctx context.Context, job *compileJob, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Bin, args...)
	job.lastCommand = c.Bin + " " + strings.Join(args, " ")

	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

// runBatchMode is strategy 1: the most permissive silent mode, run up
// to MaxPasses times so cross-references resolve. Succeeds as soon as
// the output file appears after any pass.
func (c *Compiler) runBatchMode(ctx context.Context, job *compileJob) (string, error) {
	args := []string{"-interaction=batchmode", "-output-directory=" + job.outputDir, job.texPath}

	for pass := 1; pass <= c.MaxPasses; pass++ {
		_, err := c.runPass(ctx, job, args...)
		if err != nil && !isExitError(err) {
			return "", &Error{
				Message: fmt.Sprintf("batchmode pass %d could not run the compiler", pass),
				Cause:   err,
			}
		}
		if fileExists(job.pdfPath) {
			return job.pdfPath, nil
		}
	}
	return "", nil
}

// runNonStopMode is strategy 2: error-continuation with verbose
// file/line diagnostics. When no output appears, the tail of the
// captured log is surfaced for diagnosis.
func (c *Compiler) runNonStopMode(ctx context.Context, job *compileJob) (string, error) {
	args := []string{"-interaction=nonstopmode", "-file-line-error", "-output-directory=" + job.outputDir, job.texPath}

	logOut, runErr := c.runPass(ctx, job, args...)
	if fileExists(job.pdfPath) {
		return job.pdfPath, nil
	}
	return "", &CompilationError{
		Message:   "nonstopmode produced no PDF",
		LogOutput: tail(logOut, logTailBytes),
		Cause:     runErr,
	}
}

// runWrapper is strategy 3: synthesize a top-level document that inputs
// the original source under maximally permissive error handling, then
// rename its output to the expected path.
func (c *Compiler) runWrapper(ctx context.Context, job *compileJob) (string, error) {
	absTex, err := filepath.Abs(job.texPath)
	if err != nil {
		absTex = job.texPath
	}
	wrapper := fmt.Sprintf(`\nonstopmode
\batchmode
\documentclass{article}
\begin{document}
\scrollmode
\input{%s}
\end{document}
`, strings.TrimSuffix(absTex, ".tex"))

	wrapperPath := filepath.Join(job.outputDir, "wrapper_"+job.stem+".tex")
	if err := os.WriteFile(wrapperPath, []byte(wrapper), 0644); err != nil {
		return "", &Error{Message: "failed to write wrapper document", Cause: err}
	}

	args := []string{"-interaction=batchmode", "-output-directory=" + job.outputDir, wrapperPath}
	if _, err := c.runPass(ctx, job, args...); err != nil && !isExitError(err) {
		return "", &Error{Message: "wrapper compilation could not run the compiler", Cause: err}
	}

	wrapperPDF := filepath.Join(job.outputDir, "wrapper_"+job.stem+".pdf")
	if !fileExists(wrapperPDF) {
		return "", nil
	}
	if err := os.Rename(wrapperPDF, job.pdfPath); err != nil {
		return "", &Error{Message: "failed to rename wrapper output", Cause: err}
	}
	return job.pdfPath, nil
}

// runBraceRepair is strategy 4: mechanically balance braces and ensure
// the document terminator, write the repaired source as a new file,
// compile it, and rename its output to the expected path.
func (c *Compiler) runBraceRepair(ctx context.Context, job *compileJob) (string, error) {
	data, err := os.ReadFile(job.texPath)
	if err != nil {
		return "", &FileReadError{
			Message: fmt.Sprintf("failed to read source for repair: %s", job.texPath),
			Cause:   err,
		}
	}

	fixed, fixes := RepairSource(string(data))
	if len(fixes) > 0 {
		log.Printf("latex: applied fixes: %s", strings.Join(fixes, ", "))
	}

	fixedPath := filepath.Join(job.outputDir, "fixed_"+job.stem+".tex")
	if err := os.WriteFile(fixedPath, []byte(fixed), 0644); err != nil {
		return "", &Error{Message: "failed to write repaired document", Cause: err}
	}

	args := []string{"-interaction=batchmode", "-output-directory=" + job.outputDir, fixedPath}
	if _, err := c.runPass(ctx, job, args...); err != nil && !isExitError(err) {
		return "", &Error{Message: "repaired compilation could not run the compiler", Cause: err}
	}

	fixedPDF := filepath.Join(job.outputDir, "fixed_"+job.stem+".pdf")
	if !fileExists(fixedPDF) {
		return "", nil
	}
	if err := os.Rename(fixedPDF, job.pdfPath); err != nil {
		return "", &Error{Message: "failed to rename repaired output", Cause: err}
	}
	return job.pdfPath, nil
}

// checkExistingOutput is strategy 5: a prior pass may have partially
// written an output file without any strategy reporting success.
func (c *Compiler) checkExistingOutput(_ context.Context, job *compileJob) (string, error) {
	job.lastCommand = ""
	if fileExists(job.pdfPath) {
		return job.pdfPath, nil
	}
	return "", nil
}

// exhaustedError builds the fatal error after all strategies failed,
// naming the likely defect class when it can be measured.
func (c *Compiler) exhaustedError(job *compileJob) error {
	msg := "could not generate PDF: the LaTeX source has unrecoverable structural errors"
	if data, err := os.ReadFile(job.texPath); err == nil {
		src := string(data)
		open := strings.Count(src, "{")
		closed := strings.Count(src, "}")
		if open != closed {
			msg += fmt.Sprintf(" (likely cause: %d opening vs %d closing braces)", open, closed)
		} else if !strings.Contains(src, DocumentEnd) {
			msg += fmt.Sprintf(" (likely cause: missing %s)", DocumentEnd)
		}
	}
	return &CompilationError{Message: msg}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
