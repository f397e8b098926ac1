package latex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPrelude parses the compiler flags the pipeline passes, leaving
// $out as the output directory and $base as the source file stem.
const stubPrelude = `out="."
for a in "$@"; do
  case "$a" in
    -output-directory=*) out="${a#-output-directory=}" ;;
  esac
  tex="$a"
done
base=$(basename "$tex" .tex)
`

// writeStubCompiler installs a shell script standing in for pdflatex so
// the strategy escalation can be exercised without a TeX distribution.
func writeStubCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakelatex")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+stubPrelude+script), 0755)
	require.NoError(t, err)
	return path
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newStubbedCompiler(bin string) *Compiler {
	c := NewCompiler()
	c.Bin = bin
	return c
}

const wellFormedSource = `\documentclass{article}
\begin{document}
Hello
\end{document}
`

func TestCompile_PermissiveModeSucceedsFirst(t *testing.T) {
	bin := writeStubCompiler(t, `echo pdf > "$out/$base.pdf"`)
	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	c := newStubbedCompiler(bin)
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "resume.pdf"), pdfPath)
	require.Len(t, attempts, 1, "later strategies must not run after a success")
	assert.Equal(t, "batchmode", attempts[0].Strategy)
	assert.Contains(t, attempts[0].Command, "-interaction=batchmode")
}

func TestCompile_OutputAppearsOnLaterPass(t *testing.T) {
	// The stub only emits a PDF on its third invocation, simulating a
	// document that needs multiple passes for cross-references.
	bin := writeStubCompiler(t, `count=0
[ -f "$out/count" ] && count=$(cat "$out/count")
count=$((count+1))
echo "$count" > "$out/count"
if [ "$count" -ge 3 ]; then echo pdf > "$out/$base.pdf"; fi
exit 1`)
	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	c := newStubbedCompiler(bin)
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "resume.pdf"), pdfPath)
	require.Len(t, attempts, 1)
	assert.Equal(t, "batchmode", attempts[0].Strategy)
}

func TestCompile_ExitCodeIsAdvisory(t *testing.T) {
	// LaTeX routinely reports errors yet still writes a usable PDF.
	bin := writeStubCompiler(t, `echo pdf > "$out/$base.pdf"
exit 1`)
	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	c := newStubbedCompiler(bin)
	pdfPath, _, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.FileExists(t, pdfPath)
}

func TestCompile_WrapperRecovery(t *testing.T) {
	bin := writeStubCompiler(t, `case "$base" in
  wrapper_*) echo pdf > "$out/$base.pdf" ;;
  *) exit 1 ;;
esac`)
	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	c := newStubbedCompiler(bin)
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "resume.pdf"), pdfPath,
		"wrapper output must be renamed to the expected path")
	require.Len(t, attempts, 3)
	assert.Equal(t, "wrapper", attempts[2].Strategy)

	// The synthesized wrapper document is left behind for the caller's
	// retention policy.
	assert.FileExists(t, filepath.Join(outDir, "wrapper_resume.tex"))
}

func TestCompile_BraceRepairRecovery(t *testing.T) {
	bin := writeStubCompiler(t, `case "$base" in
  fixed_*) echo pdf > "$out/$base.pdf" ;;
  *) exit 1 ;;
esac`)
	outDir := t.TempDir()
	unbalanced := `\documentclass{article}
\begin{document}
\textbf{Name
`
	texPath := writeSource(t, t.TempDir(), "resume.tex", unbalanced)

	c := newStubbedCompiler(bin)
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "resume.pdf"), pdfPath)
	require.Len(t, attempts, 4)
	assert.Equal(t, "brace-repair", attempts[3].Strategy)

	fixed, readErr := os.ReadFile(filepath.Join(outDir, "fixed_resume.tex"))
	require.NoError(t, readErr)
	assert.Equal(t, strings.Count(string(fixed), "{"), strings.Count(string(fixed), "}"))
	assert.Contains(t, string(fixed), DocumentEnd)
}

func TestCompile_AllStrategiesExhausted(t *testing.T) {
	bin := writeStubCompiler(t, `exit 1`)
	outDir := t.TempDir()
	unbalanced := `\documentclass{article}
\begin{document}
\textbf{broken
\end{document}
`
	texPath := writeSource(t, t.TempDir(), "resume.tex", unbalanced)

	c := newStubbedCompiler(bin)
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	assert.Empty(t, pdfPath)
	assert.Len(t, attempts, 5)

	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.Message, "unrecoverable")
	assert.Contains(t, compErr.Message, "braces", "fatal error should name the likely defect class")
}

func TestCompile_ZeroFieldsFallBackToDefaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts require a POSIX shell")
	}
	binDir := t.TempDir()
	script := "#!/bin/sh\n" + stubPrelude + `echo pdf > "$out/$base.pdf"` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(binDir, DefaultBin), []byte(script), 0755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	// Only the timeout is set, as the server and CLI construct it; the
	// binary and pass cap must fall back to package defaults.
	c := &Compiler{Timeout: 5 * time.Second}
	pdfPath, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "resume.pdf"), pdfPath)
	require.Len(t, attempts, 1)
	assert.Contains(t, attempts[0].Command, DefaultBin)
}

func TestCompile_SourceMissing(t *testing.T) {
	c := NewCompiler()
	_, _, err := c.Compile(context.Background(), "/nonexistent/resume.tex", t.TempDir())

	var fileErr *FileReadError
	assert.True(t, errors.As(err, &fileErr))
}

func TestCompile_NonStopModeKeepsLogTail(t *testing.T) {
	// First strategy silently fails; nonstopmode fails too but its
	// attempt must carry the captured diagnostics.
	bin := writeStubCompiler(t, `case "$base" in
  wrapper_*) echo pdf > "$out/$base.pdf" ;;
  *) echo "! Undefined control sequence. l.12"; exit 1 ;;
esac`)
	outDir := t.TempDir()
	texPath := writeSource(t, t.TempDir(), "resume.tex", wellFormedSource)

	c := newStubbedCompiler(bin)
	_, attempts, err := c.Compile(context.Background(), texPath, outDir)

	require.NoError(t, err)
	require.Len(t, attempts, 3)

	var compErr *CompilationError
	require.ErrorAs(t, attempts[1].Err, &compErr)
	assert.Contains(t, compErr.LogOutput, "Undefined control sequence")
}
