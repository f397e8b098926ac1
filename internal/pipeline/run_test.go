package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/resume-tailor/internal/latex"
)

const draftLatex = `\section{Experience}
\textbf{Acme Corp} Built Go services.`

const finalLatex = `\documentclass{article}
\begin{document}
\section{Experience}
\textbf{Acme Corp} Built Go services.
\end{document}`

// scriptedClient returns one canned response per call, in order.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("unexpected call %d", c.calls)
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func (c *scriptedClient) GenerateJSON(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (c *scriptedClient) Close() error { return nil }

// textPDF builds a minimal one-page PDF with visible text, enough for the
// blank-page check to keep the page.
func textPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, obj := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xrefPos)
	return buf.Bytes()
}

// writeStubCompiler writes a shell script that pretends to be pdflatex and
// copies a prebuilt PDF next to the requested output.
func writeStubCompiler(t *testing.T, dir, fixturePDF string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts require a POSIX shell")
	}

	script := `#!/bin/sh
outdir="."
for arg in "$@"; do
	case "$arg" in
	-output-directory=*) outdir="${arg#-output-directory=}" ;;
	esac
	last="$arg"
done
stem=$(basename "$last" .tex)
cp "` + fixturePDF + `" "$outdir/$stem.pdf"
exit 0
`
	path := filepath.Join(dir, "stub-pdflatex")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeFailingCompiler(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts require a POSIX shell")
	}
	path := filepath.Join(dir, "failing-pdflatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0755))
	return path
}

func writeInputs(t *testing.T, dir string) (resume, job, template string) {
	t.Helper()
	resume = filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("Summary\nGo engineer.\n\nSkills\nGo, SQL\n"), 0644))

	job = filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(job, []byte("We need a backend engineer who knows Go."), 0644))

	template = filepath.Join(dir, "template.tex")
	require.NoError(t, os.WriteFile(template, []byte("\\documentclass{article}\n\\begin{document}\n\\end{document}\n"), 0644))
	return resume, job, template
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	resume, job, template := writeInputs(t, dir)

	fixture := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, os.WriteFile(fixture, textPDF("Tailored Resume"), 0644))
	stub := writeStubCompiler(t, dir, fixture)

	var events []ProgressEvent
	opts := RunOptions{
		ResumePath:   resume,
		JobPath:      job,
		TemplatePath: template,
		ResultsDir:   filepath.Join(dir, "results"),
		Client:       &scriptedClient{responses: []string{draftLatex, finalLatex}},
		Compiler:     &latex.Compiler{Bin: stub},
		OnProgress:   func(e ProgressEvent) { events = append(events, e) },
	}

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.FileExists(t, result.DraftTexPath)
	assert.FileExists(t, result.FinalTexPath)
	assert.FileExists(t, result.PDFPath)
	assert.False(t, result.BlankPageRemoved)
	assert.NotEmpty(t, result.Attempts)

	draft, err := os.ReadFile(result.DraftTexPath)
	require.NoError(t, err)
	assert.Equal(t, draftLatex, string(draft))

	final, err := os.ReadFile(result.FinalTexPath)
	require.NoError(t, err)
	assert.Equal(t, finalLatex, string(final))

	steps := make([]string, 0, len(events))
	for _, e := range events {
		steps = append(steps, e.Step)
		assert.Equal(t, result.RunID.String(), e.RunID)
	}
	assert.Equal(t, []string{"load", "tailor", "insert", "compile", "clean", "done"}, steps)
}

func TestRun_ArtifactNamesSharePrefix(t *testing.T) {
	dir := t.TempDir()
	resume, job, template := writeInputs(t, dir)

	fixture := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, os.WriteFile(fixture, textPDF("Resume"), 0644))
	stub := writeStubCompiler(t, dir, fixture)

	result, err := Run(context.Background(), RunOptions{
		ResumePath:   resume,
		JobPath:      job,
		TemplatePath: template,
		ResultsDir:   filepath.Join(dir, "results"),
		Client:       &scriptedClient{responses: []string{draftLatex, finalLatex}},
		Compiler:     &latex.Compiler{Bin: stub},
	})
	require.NoError(t, err)

	assert.Regexp(t, `draft_resume_\d+\.tex$`, result.DraftTexPath)
	assert.Regexp(t, `final_resume_\d+\.tex$`, result.FinalTexPath)
	assert.Regexp(t, `final_resume_fixed_\d+\.pdf$`, result.PDFPath)
}

func TestRun_RawResumeText(t *testing.T) {
	// Upload handlers extract text themselves; no resume file exists.
	dir := t.TempDir()
	_, job, template := writeInputs(t, dir)

	fixture := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, os.WriteFile(fixture, textPDF("Resume"), 0644))
	stub := writeStubCompiler(t, dir, fixture)

	result, err := Run(context.Background(), RunOptions{
		ResumeText:   "Summary\nGo engineer.\n\nSkills\nGo, SQL\n",
		ResumeName:   "resume.pdf",
		JobPath:      job,
		TemplatePath: template,
		ResultsDir:   filepath.Join(dir, "results"),
		Client:       &scriptedClient{responses: []string{draftLatex, finalLatex}},
		Compiler:     &latex.Compiler{Bin: stub},
	})
	require.NoError(t, err)
	assert.FileExists(t, result.PDFPath)
}

func TestRun_CompileFailure(t *testing.T) {
	dir := t.TempDir()
	resume, job, template := writeInputs(t, dir)
	stub := writeFailingCompiler(t, dir)

	_, err := Run(context.Background(), RunOptions{
		ResumePath:   resume,
		JobPath:      job,
		TemplatePath: template,
		ResultsDir:   filepath.Join(dir, "results"),
		Client:       &scriptedClient{responses: []string{draftLatex, finalLatex}},
		Compiler:     &latex.Compiler{Bin: stub, MaxPasses: 1},
	})

	var compErr *latex.CompilationError
	assert.ErrorAs(t, err, &compErr)
}

func TestRun_MissingResume(t *testing.T) {
	dir := t.TempDir()
	_, job, template := writeInputs(t, dir)

	_, err := Run(context.Background(), RunOptions{
		ResumePath:   filepath.Join(dir, "missing.txt"),
		JobPath:      job,
		TemplatePath: template,
		ResultsDir:   filepath.Join(dir, "results"),
		Client:       &scriptedClient{},
		Compiler:     &latex.Compiler{Bin: "/bin/false"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading resume failed")
}

func TestRun_RequiresClient(t *testing.T) {
	_, err := Run(context.Background(), RunOptions{})
	assert.Error(t, err)
}
